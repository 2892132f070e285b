package printer

import (
	"fmt"
	"math"
	"strconv"
)

const bytesPerMB = 1024 * 1024

// FormatMB returns the size in megabytes with two decimals, the way a selected file is shown.
// Example: 2097152 -> "2.00 MB".
func FormatMB(bytes int64) string {
	return fmt.Sprintf("%.2f MB", float64(bytes)/bytesPerMB)
}

var fileSizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatFileSize returns a human-readable size with up to two decimals.
// Examples: "0 Bytes", "512 Bytes", "1.5 KB", "700 MB".
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}

	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(fileSizeUnits) {
		i = len(fileSizeUnits) - 1
	}

	v := float64(bytes) / math.Pow(1024, float64(i))
	v = math.Round(v*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + fileSizeUnits[i]
}
