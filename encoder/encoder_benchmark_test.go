package encoder

import "testing"

func BenchmarkEncodeJPEG(b *testing.B) {
	frame := getPhotoFrame()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := EncodeJPEG(frame, DefaultQualityStart); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEncodeUnderBudget(b *testing.B) {
	frame := getPhotoFrame()
	budget := DefaultBudget()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := EncodeUnderBudget(frame, budget); err != nil {
			b.Fatal(err)
		}
	}
}
