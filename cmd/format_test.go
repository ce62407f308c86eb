package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMoney(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0.00"},
		{1500, "1.50"},
		{1234567, "1,234.57"},
		{999999, "1,000.00"},
		{-2500000, "(2,500.00)"},
		{123456789012, "123,456,789.01"},
		{9007199254740993, "9,007,199,254,740.99"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, money(tt.in), "money(%d)", tt.in)
	}
}
