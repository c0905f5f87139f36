// Package region maps ERP region codes to Indian GST state names and state codes.
package region

import (
	"strconv"
	"strings"
)

// State is a GST state or union territory.
type State struct {
	Name string
	Code string
}

var states = map[string]State{
	"JK": {"Jammu and Kashmir", "01"},
	"HP": {"Himachal Pradesh", "02"},
	"PB": {"Punjab", "03"},
	"CH": {"Chandigarh", "04"},
	"UK": {"Uttarakhand", "05"},
	"UT": {"Uttarakhand", "05"},
	"HR": {"Haryana", "06"},
	"DL": {"Delhi", "07"},
	"RJ": {"Rajasthan", "08"},
	"UP": {"Uttar Pradesh", "09"},
	"BR": {"Bihar", "10"},
	"SK": {"Sikkim", "11"},
	"AR": {"Arunachal Pradesh", "12"},
	"NL": {"Nagaland", "13"},
	"MN": {"Manipur", "14"},
	"MZ": {"Mizoram", "15"},
	"TR": {"Tripura", "16"},
	"ML": {"Meghalaya", "17"},
	"AS": {"Assam", "18"},
	"WB": {"West Bengal", "19"},
	"JH": {"Jharkhand", "20"},
	"OD": {"Odisha", "21"},
	"OR": {"Odisha", "21"},
	"CG": {"Chhattisgarh", "22"},
	"CT": {"Chhattisgarh", "22"},
	"MP": {"Madhya Pradesh", "23"},
	"GJ": {"Gujarat", "24"},
	"DN": {"Dadra and Nagar Haveli and Daman and Diu", "26"},
	"DD": {"Dadra and Nagar Haveli and Daman and Diu", "26"},
	"MH": {"Maharashtra", "27"},
	"KA": {"Karnataka", "29"},
	"GA": {"Goa", "30"},
	"LD": {"Lakshadweep", "31"},
	"KL": {"Kerala", "32"},
	"TN": {"Tamil Nadu", "33"},
	"PY": {"Puducherry", "34"},
	"AN": {"Andaman and Nicobar Islands", "35"},
	"TS": {"Telangana", "36"},
	"TG": {"Telangana", "36"},
	"AP": {"Andhra Pradesh", "37"},
	"LA": {"Ladakh", "38"},
	"OT": {"Other Territory", "97"},
}

var byCode = func() map[string]State {
	m := make(map[string]State, len(states))
	for _, s := range states {
		m[s.Code] = s
	}
	return m
}()

// Lookup resolves a region given as an abbreviation ("MH") or a numeric state code
// ("27", "027"). ok is false when the region is unknown.
func Lookup(region string) (State, bool) {
	r := strings.ToUpper(strings.TrimSpace(region))
	if r == "" {
		return State{}, false
	}
	if s, ok := states[r]; ok {
		return s, true
	}
	if n, err := strconv.Atoi(r); err == nil && n > 0 {
		if s, ok := byCode[padCode(n)]; ok {
			return s, true
		}
	}
	return State{}, false
}

// Resolve returns the state name and code for region. Unknown regions keep the raw
// value as name and an empty code.
func Resolve(region string) (name, code string) {
	if s, ok := Lookup(region); ok {
		return s.Name, s.Code
	}
	return region, ""
}

func padCode(n int) string {
	s := strconv.Itoa(n)
	if len(s) < 2 {
		s = "0" + s
	}
	return s
}
