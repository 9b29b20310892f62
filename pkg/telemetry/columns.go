package telemetry

// Columns holds resolved positional indices of the telemetry fields.
type Columns struct {
	Time     int
	Fuel     int
	Internal int
	External int
	Pitch    int
	Phase    int
}

// DefaultColumns is the firmware column order, used when a header name is absent.
var DefaultColumns = Columns{
	Time:     0,
	Fuel:     1,
	Internal: 2,
	External: 3,
	Pitch:    4,
	Phase:    5,
}

// ResolveColumns finds each field by name in header, falling back to its
// DefaultColumns position when the name is missing. The first match wins.
func ResolveColumns(header []string) Columns {
	index := func(name string, fallback int) int {
		for i, h := range header {
			if h == name {
				return i
			}
		}
		return fallback
	}

	return Columns{
		Time:     index(ColTimeMS, DefaultColumns.Time),
		Fuel:     index(ColFuelLevel, DefaultColumns.Fuel),
		Internal: index(ColInternalTemp, DefaultColumns.Internal),
		External: index(ColExternalTemp, DefaultColumns.External),
		Pitch:    index(ColPitch, DefaultColumns.Pitch),
		Phase:    index(ColPhase, DefaultColumns.Phase),
	}
}

// Max returns the largest index, i.e. a row needs Max()+1 fields to cover all columns.
func (c Columns) Max() int {
	m := c.Time
	for _, v := range []int{c.Fuel, c.Internal, c.External, c.Pitch, c.Phase} {
		if v > m {
			m = v
		}
	}
	return m
}
