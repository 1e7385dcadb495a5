package remote

import (
	"testing"
	"time"

	"github.com/HendryAvila/tempo/internal/model"
)

func TestTaskWhere(t *testing.T) {
	client := int64(3)
	since := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		filter   model.TaskFilter
		want     string
		wantArgs int
	}{
		{"empty", model.TaskFilter{}, " ORDER BY id", 0},
		{"limit only", model.TaskFilter{Limit: 5}, " ORDER BY id LIMIT $1", 1},
		{
			"all fields",
			model.TaskFilter{
				Statuses:       model.OpenStatuses(),
				Category:       model.CategoryPersonal,
				ClientID:       &client,
				CompletedSince: &since,
				Limit:          10,
			},
			" WHERE status = ANY($1) AND category = $2 AND client_id = $3 AND completed_at >= $4 ORDER BY id LIMIT $5",
			5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, args := taskWhere(tt.filter)
			if got != tt.want {
				t.Errorf("query = %q\nwant    %q", got, tt.want)
			}
			if len(args) != tt.wantArgs {
				t.Errorf("len(args) = %d, want %d", len(args), tt.wantArgs)
			}
		})
	}
}
