package repository

import (
	"reflect"
	"testing"

	"github.com/rentables/lease-notification-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
)

func TestDeliveryStatusFilter(t *testing.T) {
	tests := []struct {
		name   string
		status domain.DeliveryStatus
		want   bson.M
	}{
		{
			"delivered matches any channel",
			domain.DeliveryStatusDelivered,
			bson.M{"provider_id": "wamid.1"},
		},
		{
			"failed matches any channel",
			domain.DeliveryStatusFailed,
			bson.M{"provider_id": "wamid.1"},
		},
		{
			"read requires whatsapp",
			domain.DeliveryStatusRead,
			bson.M{"provider_id": "wamid.1", "channel": domain.ChannelWhatsApp},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := deliveryStatusFilter("wamid.1", tt.status)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("deliveryStatusFilter() = %v, want %v", got, tt.want)
			}
		})
	}
}
