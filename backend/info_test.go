package backend

import "testing"

func TestParseInfoSkipsHeadersAndBlankLines(t *testing.T) {
	in := "# Server\r\nredis_version:7.2.4\r\nuptime_in_seconds:42\r\n\r\n# Keyspace\r\ndb0:keys=3,expires=0\r\n"
	got := ParseInfo(in)
	if len(got) != 3 {
		t.Fatalf("len=%d want 3: %v", len(got), got)
	}
	if got["redis_version"] != "7.2.4" {
		t.Fatalf("redis_version=%q", got["redis_version"])
	}
	if got["db0"] != "keys=3,expires=0" {
		t.Fatalf("db0=%q", got["db0"])
	}
}

func TestParseCommandStatsOrdersByCalls(t *testing.T) {
	in := "# Commandstats\n" +
		"cmdstat_get:calls=21,usec=175,usec_per_call=8.33\n" +
		"cmdstat_set:calls=40,usec=300,usec_per_call=7.50\n" +
		"cmdstat_del:calls=21,usec=10,usec_per_call=0.48\n"
	got := ParseCommandStats(in)
	want := []CommandStat{{"set", 40}, {"del", 21}, {"get", 21}}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("at %d: got %v want %v", i, got[i], want[i])
		}
	}
}
