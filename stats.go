package max3100

import "fmt"

// Stats counts bus activity for one open handle
type Stats struct {
	Exchanges     uint64 // 16-bit transfers issued
	Pumps         uint64
	Misses        uint64 // read-data polls without the R flag
	BytesSent     uint64
	BytesReceived uint64 // bytes stored in the ring
	Overruns      uint64
}

func (s Stats) String() string {
	return fmt.Sprintf("exchanges=%d pumps=%d misses=%d tx=%d rx=%d overruns=%d",
		s.Exchanges, s.Pumps, s.Misses, s.BytesSent, s.BytesReceived, s.Overruns)
}
