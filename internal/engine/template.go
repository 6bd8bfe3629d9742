package engine

import (
	"fmt"
	"strings"

	"github.com/rentables/lease-notification-service/internal/domain"
)

// Render substitutes {{name}} placeholders in a template body. Unknown
// placeholders are left in place.
func Render(body string, vars map[string]string) string {
	if body == "" || len(vars) == 0 {
		return body
	}
	pairs := make([]string, 0, len(vars)*2)
	for name, value := range vars {
		pairs = append(pairs, "{{"+name+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(body)
}

const dateLayout = "2006-01-02"

func contractVars(c *domain.Contract, daysBefore int) map[string]string {
	return map[string]string{
		"contract_number": c.ContractNumber,
		"start_date":      c.StartDate.Format(dateLayout),
		"end_date":        c.EndDate.Format(dateLayout),
		"rent_amount":     fmt.Sprintf("%.2f", c.RentAmount),
		"days":            fmt.Sprintf("%d", daysBefore),
	}
}

func paymentVars(p *domain.PaymentObligation, c *domain.Contract, daysBefore int) map[string]string {
	vars := map[string]string{
		"due_date": p.DueDate.Format(dateLayout),
		"amount":   fmt.Sprintf("%.2f", p.Amount),
		"sequence": fmt.Sprintf("%d", p.Sequence),
		"days":     fmt.Sprintf("%d", daysBefore),
	}
	if c != nil {
		vars["contract_number"] = c.ContractNumber
	}
	return vars
}

func maintenanceVars(m *domain.MaintenanceRequest, daysBefore int) map[string]string {
	return map[string]string{
		"request_number": m.RequestNumber,
		"description":    m.Description,
		"reported_date":  m.ReportedDate.Format(dateLayout),
		"days":           fmt.Sprintf("%d", daysBefore),
	}
}

// fallbackContent returns the built-in title and message used when a
// template does not define a system message for the trigger event.
func fallbackContent(event domain.TriggerEvent, vars map[string]string) (string, string) {
	switch event {
	case domain.TriggerContractExpiring:
		return "Contract Expiring Soon",
			fmt.Sprintf("Contract %s expires on %s.", vars["contract_number"], vars["end_date"])
	case domain.TriggerPaymentDue:
		return "Payment Due",
			fmt.Sprintf("Payment of %s for contract %s is due on %s.", vars["amount"], vars["contract_number"], vars["due_date"])
	case domain.TriggerMaintenanceOverdue:
		return "Maintenance Request Overdue",
			fmt.Sprintf("Maintenance request %s reported on %s is still open.", vars["request_number"], vars["reported_date"])
	}
	return "Notification", ""
}
