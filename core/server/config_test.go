package server_test

import (
	"testing"

	"github.com/whaleen/warehouse-sub004/core/server"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		warehouse string
		want      bool
	}{
		{"Default", "main", true},
		{"Named", "north-dock", true},
		{"Whitespace", "   ", false},
		{"Empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := server.Config{Warehouse: tt.warehouse}
			assert.Equal(t, tt.want, c.Validate())
		})
	}
}
