package hazard

// ProvinceFilter is either every province or one named province. The zero
// value selects every province.
type ProvinceFilter struct {
	name     string
	specific bool
}

// AllProvinces selects every rain point.
func AllProvinces() ProvinceFilter { return ProvinceFilter{} }

// Province selects rain points whose province equals name exactly.
func Province(name string) ProvinceFilter {
	return ProvinceFilter{name: name, specific: true}
}

// All reports whether the filter selects every province.
func (f ProvinceFilter) All() bool { return !f.specific }

// Name returns the selected province, or "" for AllProvinces.
func (f ProvinceFilter) Name() string { return f.name }

// Label is the text shown in the province selector.
func (f ProvinceFilter) Label() string {
	if f.All() {
		return AllProvincesLabel
	}
	return f.name
}

// FilterByProvince narrows rain points to the selected province, keeping the
// original order. AllProvinces returns points itself.
func FilterByProvince(points []RainPoint, f ProvinceFilter) []RainPoint {
	if f.All() {
		return points
	}
	out := make([]RainPoint, 0, len(points))
	for _, p := range points {
		if p.Province == f.name {
			out = append(out, p)
		}
	}
	return out
}

// Provinces returns the distinct non-empty provinces in first-seen order.
func Provinces(points []RainPoint) []string {
	seen := make(map[string]struct{}, len(points))
	out := make([]string, 0)
	for _, p := range points {
		if p.Province == "" {
			continue
		}
		if _, ok := seen[p.Province]; ok {
			continue
		}
		seen[p.Province] = struct{}{}
		out = append(out, p.Province)
	}
	return out
}
