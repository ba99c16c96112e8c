package journal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jdwptap/jdwptap/jdwp"
)

func BenchmarkRecord_Packet(b *testing.B) {
	path := filepath.Join(b.TempDir(), "bench.jsonl")
	j, err := Open(path)
	if err != nil {
		b.Fatal(err)
	}
	defer j.Close()

	events := testPacketEvents()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := j.Record("s-bench", uint64(i+1), jdwp.SuspendNone, events); err != nil {
			b.Fatal(err)
		}
	}
}

func benchVerify(b *testing.B, packets int) {
	b.Helper()
	path := filepath.Join(b.TempDir(), "bench.jsonl")
	j, err := Open(path)
	if err != nil {
		b.Fatal(err)
	}
	events := testPacketEvents()
	for i := 0; i < packets; i++ {
		if err := j.Record("s-bench", uint64(i+1), jdwp.SuspendNone, events); err != nil {
			b.Fatal(err)
		}
	}
	j.Close()

	info, _ := os.Stat(path)
	b.ResetTimer()
	b.SetBytes(info.Size())

	for i := 0; i < b.N; i++ {
		result := Verify(path)
		if !result.Valid {
			b.Fatal("invalid journal:", result.Error)
		}
	}
}

func BenchmarkVerify_500(b *testing.B) {
	benchVerify(b, 500)
}

func BenchmarkVerify_5000(b *testing.B) {
	benchVerify(b, 5000)
}
