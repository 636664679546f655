package ledger

import (
	"errors"
	"math"
	"testing"
)

func TestAvailable(t *testing.T) {
	tests := []struct {
		name     string
		balance  uint64
		floor    uint64
		expected uint64
	}{
		{"above floor", 1000, 10, 990},
		{"at floor", 10, 10, 0},
		{"below floor", 5, 10, 0},
		{"zero balance", 0, 10, 0},
		{"zero floor", 100, 0, 100},
		{"max balance", math.MaxUint64, 0, math.MaxUint64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Available(tt.balance, tt.floor); got != tt.expected {
				t.Errorf("Available(%d, %d) = %d, want %d", tt.balance, tt.floor, got, tt.expected)
			}
		})
	}
}

func TestTransfer(t *testing.T) {
	tests := []struct {
		name     string
		from     uint64
		to       uint64
		amount   uint64
		floor    uint64
		wantFrom uint64
		wantTo   uint64
		wantErr  error
	}{
		{"simple move", 1000, 0, 500, 10, 500, 500, nil},
		{"drain to floor", 1000, 0, 990, 10, 10, 990, nil},
		{"zero amount", 1000, 200, 0, 10, 1000, 200, nil},
		{"exceeds available", 100, 0, 95, 10, 100, 0, ErrInsufficientFunds},
		{"floor above balance", 5, 0, 1, 10, 5, 0, ErrInsufficientFunds},
		{"credit overflow", 1000, math.MaxUint64, 1, 0, 1000, math.MaxUint64, ErrAmountOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotFrom, gotTo, err := Transfer(tt.from, tt.to, tt.amount, tt.floor)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Transfer() error = %v, want %v", err, tt.wantErr)
			}
			if gotFrom != tt.wantFrom || gotTo != tt.wantTo {
				t.Errorf("Transfer() = (%d, %d), want (%d, %d)", gotFrom, gotTo, tt.wantFrom, tt.wantTo)
			}
		})
	}
}

func TestTransfer_Conservation(t *testing.T) {
	from, to := uint64(1000), uint64(250)
	total := from + to

	for _, amount := range []uint64{0, 1, 400, 990} {
		newFrom, newTo, err := Transfer(from, to, amount, 10)
		if err != nil {
			t.Fatalf("Transfer(%d) error = %v", amount, err)
		}
		if newFrom+newTo != total {
			t.Errorf("conservation violated: %d + %d != %d", newFrom, newTo, total)
		}
	}
}
