package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"portal/internal"
	"portal/internal/util"
)

var (
	ErrInvalidSupplierPayload = errors.New("invalid data format received from server")
	ErrEmptySupplierPayload   = errors.New("no supplier data")
)

var (
	supplierWrapperKeys = []string{"supplier", "Supplier"}
	knownSupplierKeys   = []string{"CompanyName", "CompanyID", "ContactName"}
	supplierPhoneKeys   = []string{"C_Phone", "Phone", "phone"}
)

var fixedSupplierKeys = map[string]struct{}{
	"CompanyName": {},
	"CompanyID":   {},
	"ContactName": {},
	"C_Phone":     {},
	"Phone":       {},
	"phone":       {},
	"Fax":         {},
	"C_City":      {},
	"C_Country":   {},
}

// UnwrapSupplier decodes a supplier payload and classifies it. The payload
// may be a record or a JSON string holding one, optionally wrapped in a
// "supplier"/"Supplier" field. A payload without any identifying company
// field comes back with Known=false and the raw value for display.
func UnwrapSupplier(raw json.RawMessage) (internal.SupplierView, error) {
	value, err := decodeSupplierValue(raw)
	if err != nil {
		return internal.SupplierView{}, err
	}

	if m, ok := value.(map[string]any); ok {
		for _, key := range supplierWrapperKeys {
			if inner, ok := m[key]; ok {
				value = inner
				break
			}
		}
	}

	view := internal.SupplierView{RawJSON: prettyJSON(value)}
	m, ok := value.(map[string]any)
	if !ok || !hasAnyKey(m, knownSupplierKeys) {
		return view, nil
	}

	view.Known = true
	view.CompanyName = displayValue(m, "CompanyName")
	view.CompanyID = displayValue(m, "CompanyID")
	view.ContactName = displayValue(m, "ContactName")
	view.Fax = displayValue(m, "Fax")
	view.City = displayValue(m, "C_City")
	view.Country = displayValue(m, "C_Country")
	for _, key := range supplierPhoneKeys {
		if v, ok := m[key]; ok && v != nil && !isNotAvailable(v) {
			view.Phone = util.FormatPhone(v)
			break
		}
	}

	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if _, fixed := fixedSupplierKeys[key]; fixed {
			continue
		}
		v := m[key]
		if !util.IsTruthy(v) || isNotAvailable(v) {
			continue
		}
		view.Additional = append(view.Additional, internal.SupplierField{
			Label: util.HumanizeKey(key),
			Value: util.StringValue(v),
		})
	}
	return view, nil
}

func decodeSupplierValue(raw json.RawMessage) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, ErrEmptySupplierPayload
	}
	value, err := decodeAny(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSupplierPayload, err)
	}
	if !util.IsTruthy(value) {
		return nil, ErrEmptySupplierPayload
	}
	if s, ok := value.(string); ok {
		value, err = decodeAny([]byte(s))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSupplierPayload, err)
		}
	}
	return value, nil
}

func decodeAny(blob []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(blob))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func displayValue(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil || isNotAvailable(v) {
		return ""
	}
	return util.StringValue(v)
}

func isNotAvailable(v any) bool {
	s, ok := v.(string)
	return ok && s == internal.NotAvailable
}

func hasAnyKey(m map[string]any, keys []string) bool {
	for _, key := range keys {
		if _, ok := m[key]; ok {
			return true
		}
	}
	return false
}

func prettyJSON(v any) string {
	blob, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(blob)
}
