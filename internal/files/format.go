package files

import (
	"strconv"
	"time"

	"github.com/c2h5oh/datasize"
)

// DefaultDateLayout is used when no layout is configured.
const DefaultDateLayout = "2006-01-02 15:04"

var sizeUnits = []struct {
	label string
	size  datasize.ByteSize
}{
	{"Bytes", datasize.B},
	{"KB", datasize.KB},
	{"MB", datasize.MB},
	{"GB", datasize.GB},
}

// FormatSize renders a byte count in the largest unit that keeps the
// magnitude below 1024, rounded to two decimals.
func FormatSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	unit := sizeUnits[0]
	for _, u := range sizeUnits[1:] {
		if uint64(bytes) < u.size.Bytes() {
			break
		}
		unit = u
	}
	value := float64(bytes) / float64(unit.size.Bytes())
	return strconv.FormatFloat(roundTo2(value), 'f', -1, 64) + " " + unit.label
}

func roundTo2(v float64) float64 {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	r, _ := strconv.ParseFloat(s, 64)
	return r
}

// FormatDate renders a modification time with the given layout. The zero
// time renders as "-".
func FormatDate(t time.Time, layout string) string {
	if t.IsZero() {
		return "-"
	}
	if layout == "" {
		layout = DefaultDateLayout
	}
	return t.Local().Format(layout)
}
