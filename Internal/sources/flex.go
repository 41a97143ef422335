package sources

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// flexBool accepts true/false, "1"/"0", "true"/"false" and 1/0. Empty strings
// and null leave it unset.
type flexBool struct {
	set bool
	val bool
}

func (f *flexBool) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}

	var raw interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case bool:
		f.set, f.val = true, v
	case float64:
		f.set, f.val = true, v != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes":
			f.set, f.val = true, true
		case "0", "false", "no":
			f.set, f.val = true, false
		}
	}
	return nil
}

func (f flexBool) ptr() *bool {
	if !f.set {
		return nil
	}
	v := f.val
	return &v
}

// flexFloat accepts numbers and numeric strings.
type flexFloat struct {
	set bool
	val float64
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}

	var raw interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case float64:
		f.set, f.val = true, v
	case string:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			f.set, f.val = true, parsed
		}
	}
	return nil
}

func (f flexFloat) ptr() *float64 {
	if !f.set {
		return nil
	}
	v := f.val
	return &v
}

// scaled returns the value multiplied by factor, used for fraction-to-percent.
func (f flexFloat) scaled(factor float64) *float64 {
	if !f.set {
		return nil
	}
	v := f.val * factor
	return &v
}

func (f flexFloat) intPtr() *int {
	if !f.set || f.val < 0 {
		return nil
	}
	v := int(f.val)
	return &v
}

func (f flexFloat) uintPtr() *uint64 {
	if !f.set || f.val < 0 {
		return nil
	}
	v := uint64(f.val)
	return &v
}

func parseBalance(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero, false
	}
	return d, true
}
