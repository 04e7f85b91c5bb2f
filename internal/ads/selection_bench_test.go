package ads

import (
	"testing"
	"time"
)

func BenchmarkModeDue(b *testing.B) {
	mode := Mode{Kind: ModeDue}
	ad := &ResolvedDefinition{
		UpdatedOn:             "2024-05-01T09:30:00",
		RepublicationInterval: 7,
	}
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = mode.Selects(ad, now)
	}
}
