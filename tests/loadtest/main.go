package main

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
)

const (
	baseURL      = "http://127.0.0.1:8090"
	numWorkers   = 50
	testDuration = 10 * time.Second
	numViewers   = 200
)

var reactions = []string{"like", "love", "haha", "wow", "sad", "angry"}

var httpClient = &http.Client{
	Timeout: 5 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        200,
		MaxIdleConnsPerHost: 200,
		IdleConnTimeout:     30 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	},
}

type result struct {
	endpoint string
	status   int
	latency  time.Duration
	err      bool
}

type stats struct {
	count     int64
	errors    int64
	latencies []time.Duration
}

// refs holds entry refs ("kind:id") seen in timelines, used as mutation targets.
var refs struct {
	sync.RWMutex
	list []string
}

func main() {
	fmt.Println("=== unifeed Load Test ===")
	fmt.Printf("Workers: %d | Duration: %s | Viewers: %d\n\n", numWorkers, testDuration, numViewers)

	// Wait for server
	fmt.Print("Waiting for server... ")
	for i := 0; i < 30; i++ {
		resp, err := httpClient.Get(baseURL + "/health")
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			break
		}
		if i == 29 {
			fmt.Println("FAILED: server not responding")
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	fmt.Println("OK")

	// Phase 1: open sessions and collect entry refs
	fmt.Println("\n--- Phase 1: Opening sessions (POST /timeline/refresh, GET /timeline) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		if rng.Float64() < 0.5 {
			return doRefresh(rng)
		}
		return doGetTimeline(rng)
	})

	refs.RLock()
	fmt.Printf("\nCollected %d entry refs\n", len(refs.list))
	refs.RUnlock()

	// Phase 2: Mixed read/write load
	fmt.Println("\n--- Phase 2: Mixed load (60% read, 30% mutate, 10% refresh) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.60:
			return doGetTimeline(rng)
		case r < 0.80:
			return doReaction(rng)
		case r < 0.90:
			return doBookmark(rng)
		default:
			return doRefresh(rng)
		}
	})

	// Phase 3: Mutation-heavy load
	fmt.Println("\n--- Phase 3: Mutation-heavy load (80% mutate, 20% read) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.50:
			return doReaction(rng)
		case r < 0.70:
			return doBookmark(rng)
		case r < 0.80:
			return doComment(rng)
		default:
			return doGetTimeline(rng)
		}
	})
}

func runPhase(duration time.Duration, workFn func(rng *rand.Rand) result) {
	results := make(chan result, 10000)
	var wg sync.WaitGroup
	var totalOps atomic.Int64
	stop := make(chan struct{})

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
					r := workFn(rng)
					totalOps.Add(1)
					results <- r
				}
			}
		}(rand.Int63() + int64(i))
	}

	allResults := make(map[string]*stats)
	done := make(chan struct{})
	go func() {
		for r := range results {
			s, ok := allResults[r.endpoint]
			if !ok {
				s = &stats{}
				allResults[r.endpoint] = s
			}
			s.count++
			if r.err {
				s.errors++
			}
			s.latencies = append(s.latencies, r.latency)
		}
		close(done)
	}()

	time.Sleep(duration)
	close(stop)
	wg.Wait()
	close(results)
	<-done

	printResults(allResults, duration)
}

func printResults(allResults map[string]*stats, duration time.Duration) {
	var totalOps int64
	var totalErrors int64

	endpoints := make([]string, 0, len(allResults))
	for ep := range allResults {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	fmt.Printf("\n  %-22s %8s %6s %10s %10s %10s %10s\n",
		"Endpoint", "Reqs", "Errs", "Avg", "P50", "P95", "P99")
	fmt.Println("  " + repeat("-", 88))

	for _, ep := range endpoints {
		s := allResults[ep]
		totalOps += s.count
		totalErrors += s.errors

		sort.Slice(s.latencies, func(i, j int) bool {
			return s.latencies[i] < s.latencies[j]
		})

		avg := avgDuration(s.latencies)
		p50 := percentile(s.latencies, 0.50)
		p95 := percentile(s.latencies, 0.95)
		p99 := percentile(s.latencies, 0.99)

		fmt.Printf("  %-22s %8d %6d %10s %10s %10s %10s\n",
			ep, s.count, s.errors, fmtDur(avg), fmtDur(p50), fmtDur(p95), fmtDur(p99))
	}

	rps := float64(totalOps) / duration.Seconds()
	fmt.Println("  " + repeat("-", 88))
	fmt.Printf("  Total: %d reqs | Errors: %d (%.1f%%) | RPS: %.0f\n",
		totalOps, totalErrors, float64(totalErrors)/float64(totalOps)*100, rps)
}

func viewerID(rng *rand.Rand) string {
	return fmt.Sprintf("viewer_%d", rng.Intn(numViewers))
}

func randomRef(rng *rand.Rand) string {
	refs.RLock()
	defer refs.RUnlock()
	if len(refs.list) == 0 {
		return "post:1"
	}
	return refs.list[rng.Intn(len(refs.list))]
}

func send(method, path, viewer string, body any) (int, time.Duration, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, 0, err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, baseURL+path, reader)
	if err != nil {
		return 0, 0, err
	}
	req.Header.Set("X-Viewer-ID", viewer)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := httpClient.Do(req)
	lat := time.Since(start)
	if err != nil {
		return 0, lat, err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp.StatusCode, lat, nil
}

func doGetTimeline(rng *rand.Rand) result {
	req, _ := http.NewRequest(http.MethodGet, baseURL+"/timeline", nil)
	req.Header.Set("X-Viewer-ID", viewerID(rng))
	start := time.Now()
	resp, err := httpClient.Do(req)
	lat := time.Since(start)
	if err != nil {
		return result{"GET /timeline", 0, lat, true}
	}
	defer resp.Body.Close()

	var body struct {
		Entries []struct {
			ID   string `json:"id"`
			Kind string `json:"kind"`
		} `json:"entries"`
	}
	if resp.StatusCode == http.StatusOK && json.NewDecoder(resp.Body).Decode(&body) == nil && len(body.Entries) > 0 {
		refs.Lock()
		if len(refs.list) < 1000 {
			for _, e := range body.Entries {
				refs.list = append(refs.list, e.Kind+":"+e.ID)
			}
		}
		refs.Unlock()
	}
	io.Copy(io.Discard, resp.Body)
	return result{"GET /timeline", resp.StatusCode, lat, resp.StatusCode != http.StatusOK}
}

func doRefresh(rng *rand.Rand) result {
	status, lat, err := send(http.MethodPost, "/timeline/refresh", viewerID(rng), nil)
	return result{"POST /timeline/refresh", status, lat, err != nil || status != http.StatusNoContent}
}

// mutationFailed treats ignored (202) and unknown-entry (404) answers as normal
// outcomes under concurrent load.
func mutationFailed(status int, err error) bool {
	if err != nil {
		return true
	}
	switch status {
	case http.StatusNoContent, http.StatusAccepted, http.StatusNotFound:
		return false
	}
	return true
}

func doReaction(rng *rand.Rand) result {
	body := map[string]string{"ref": randomRef(rng), "reaction": reactions[rng.Intn(len(reactions))]}
	status, lat, err := send(http.MethodPost, "/entries/reaction", viewerID(rng), body)
	return result{"POST /entries/reaction", status, lat, mutationFailed(status, err)}
}

func doBookmark(rng *rand.Rand) result {
	body := map[string]string{"ref": randomRef(rng)}
	status, lat, err := send(http.MethodPost, "/entries/bookmark", viewerID(rng), body)
	return result{"POST /entries/bookmark", status, lat, mutationFailed(status, err)}
}

func doComment(rng *rand.Rand) result {
	body := map[string]string{"ref": randomRef(rng), "text": fmt.Sprintf("load comment %d", rng.Int())}
	status, lat, err := send(http.MethodPost, "/entries/comment", viewerID(rng), body)
	return result{"POST /entries/comment", status, lat, mutationFailed(status, err)}
}

func avgDuration(d []time.Duration) time.Duration {
	if len(d) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range d {
		sum += v
	}
	return sum / time.Duration(len(d))
}

func percentile(d []time.Duration, p float64) time.Duration {
	if len(d) == 0 {
		return 0
	}
	idx := int(float64(len(d)) * p)
	if idx >= len(d) {
		idx = len(d) - 1
	}
	return d[idx]
}

func fmtDur(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dus", d.Microseconds())
	}
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}

func repeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}
