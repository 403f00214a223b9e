package main

import "testing"

func TestAdjustTarget(t *testing.T) {
	tests := []struct {
		name    string
		arg     string
		current float64
		want    float64
		wantErr bool
	}{
		{name: "absolute value", arg: "42000", current: 50000, want: 42000},
		{name: "absolute with separators", arg: "42,000.50", current: 50000, want: 42000.50},
		{name: "positive delta", arg: "+500", current: 50000, want: 50500},
		{name: "negative delta", arg: "-1,250.50", current: 50000, want: 48749.50},
		{name: "delta to zero", arg: "-500", current: 500, want: 0},
		{name: "delta below zero", arg: "-600", current: 500, wantErr: true},
		{name: "absolute negative", arg: "(500)", current: 50000, wantErr: true},
		{name: "garbage", arg: "abc", current: 50000, wantErr: true},
		{name: "too many decimals", arg: "-0.001", current: 50000, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := adjustTarget(tt.arg, tt.current)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("adjustTarget(%q, %v) = %v, want error", tt.arg, tt.current, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("adjustTarget(%q, %v) unexpected error: %v", tt.arg, tt.current, err)
			}
			if got != tt.want {
				t.Fatalf("adjustTarget(%q, %v) = %v, want %v", tt.arg, tt.current, got, tt.want)
			}
		})
	}
}
