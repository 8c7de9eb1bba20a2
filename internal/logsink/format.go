package logsink

import (
	"fmt"
	"time"
)

// DateFolderFormat lays blobs out as YYYY/MM/DD.
const DateFolderFormat = "%d/%02d/%02d"

func FormatDateFolder(year int, month int, day int) string {
	return fmt.Sprintf(DateFolderFormat, year, month, day)
}

// BlobNameFor returns the append blob a host writes to on the day of t.
func BlobNameFor(t time.Time, host string) string {
	t = t.UTC()
	return FormatDateFolder(t.Year(), int(t.Month()), t.Day()) + "/" + host + ".jsonl"
}
