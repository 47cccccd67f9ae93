package fetcher

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/KevinSGarrett/DebtCollect/internal/model"
)

// columnAliases maps normalized header names onto debtor fields.
var columnAliases = map[string]string{
	"first_name": "first_name", "first": "first_name", "firstname": "first_name", "given_name": "first_name",
	"last_name": "last_name", "last": "last_name", "lastname": "last_name", "surname": "last_name",
	"address1": "address1", "address": "address1", "street": "address1", "address_1": "address1", "street_address": "address1",
	"address2": "address2", "address_2": "address2", "unit": "address2", "apt": "address2",
	"city": "city",
	"state": "state", "st": "state",
	"zip": "zip", "zipcode": "zip", "zip_code": "zip", "postal_code": "zip",
	"debt_owed": "debt_owed", "debt": "debt_owed", "balance": "debt_owed", "amount": "debt_owed", "amount_owed": "debt_owed",
}

// RowError is a spreadsheet row that could not be imported. Row is the
// 1-based line number, counting the header.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return "row " + strconv.Itoa(e.Row) + ": " + e.Err.Error()
}

// ParseResult holds the accepted debtors and the rejected rows.
type ParseResult struct {
	Debtors  []model.Debtor
	Rejected []RowError
}

// ParseDebtors maps a table whose first row is a header onto debtors.
// Rows failing validation are reported, not returned. A header without
// first and last name columns is an error.
func ParseDebtors(rows [][]string, v *model.DebtorValidator) (*ParseResult, error) {
	if len(rows) == 0 {
		return nil, eris.New("fetcher: empty table")
	}

	cols := make(map[string]int)
	for i, h := range rows[0] {
		key := strings.NewReplacer(" ", "_", "-", "_").Replace(strings.ToLower(strings.TrimSpace(h)))
		if field, ok := columnAliases[key]; ok {
			if _, dup := cols[field]; !dup {
				cols[field] = i
			}
		}
	}
	for _, required := range []string{"first_name", "last_name"} {
		if _, ok := cols[required]; !ok {
			return nil, eris.Errorf("fetcher: missing %s column", required)
		}
	}

	res := &ParseResult{}
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		line := i + 2
		get := func(field string) string {
			idx, ok := cols[field]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		d := model.Debtor{
			FirstName: get("first_name"),
			LastName:  get("last_name"),
			Address1:  get("address1"),
			Address2:  get("address2"),
			City:      get("city"),
			State:     strings.ToUpper(get("state")),
			Zip:       get("zip"),
		}
		debt, err := ParseAmount(get("debt_owed"))
		if err != nil {
			res.Rejected = append(res.Rejected, RowError{Row: line, Err: err})
			continue
		}
		d.DebtOwed = debt

		if v != nil {
			if err := v.Validate(&d); err != nil {
				res.Rejected = append(res.Rejected, RowError{Row: line, Err: err})
				continue
			}
		}
		res.Debtors = append(res.Debtors, d)
	}
	return res, nil
}

// ParseAmount reads a currency amount such as "$1,250.00". Empty is zero.
func ParseAmount(s string) (float64, error) {
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(s))
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Errorf("fetcher: invalid amount %q", s)
	}
	return f, nil
}
