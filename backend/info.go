package backend

import (
	"sort"
	"strconv"
	"strings"
)

// ParseInfo turns INFO output ("key:value" lines, "#" section headers) into a map.
func ParseInfo(info string) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(info, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		out[k] = v
	}
	return out
}

// CommandStat is the call count of one command from INFO commandstats.
type CommandStat struct {
	Name  string
	Calls int64
}

// ParseCommandStats extracts per-command call counts from "INFO commandstats",
// sorted by descending call count.
//
//	cmdstat_get:calls=21,usec=175,usec_per_call=8.33
func ParseCommandStats(info string) []CommandStat {
	var out []CommandStat
	for k, v := range ParseInfo(info) {
		name, ok := strings.CutPrefix(k, "cmdstat_")
		if !ok {
			continue
		}
		for _, part := range strings.Split(v, ",") {
			raw, ok := strings.CutPrefix(strings.TrimSpace(part), "calls=")
			if !ok {
				continue
			}
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				break
			}
			out = append(out, CommandStat{Name: name, Calls: n})
			break
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Calls != out[j].Calls {
			return out[i].Calls > out[j].Calls
		}
		return out[i].Name < out[j].Name
	})
	return out
}
