package cmd

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// flakyMap serves one map whose first constants request fails with 503
type flakyMap struct {
	constCalls int32
}

func (m *flakyMap) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("token") != "secret" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	switch r.URL.Path {
	case "/map/cmd/constData/m1/v1":
		if atomic.AddInt32(&m.constCalls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"entTypeIdMap":{"1":"AcDbPolyline","2":"AcDbText"}}`)
	case "/map/cmd/createMapStyle/m1/v1":
		fmt.Fprint(w, `{"stylename":"style1"}`)
	case "/map/cmd/queryFeatures/m1/v1":
		fmt.Fprint(w, `{"recordCount":2,"result":[`+
			`{"objectid":"outer","name":"1","bounds":"[0,0,100,100]","points":"0,0;100,0;100,100;0,100;0,0"},`+
			`{"objectid":"inner","name":"1","bounds":"[10,10,50,50]","points":"10,10;50,10;50,50;10,50"}]}`)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func TestSubmapsFromMapService(t *testing.T) {
	m := &flakyMap{}
	server := httptest.NewServer(m)
	defer server.Close()
	t.Setenv("VJMAP_ACCESS_TOKEN", "secret")
	t.Setenv("VJMAP_SERVICEURL", server.URL)

	tests := []struct {
		name string
		args []string
	}{
		{"default retries", nil},
		{"single retry", []string{"--retries", "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			atomic.StoreInt32(&m.constCalls, 0)
			args := append([]string{"submaps", "--source", "vjmap", "--map-id", "m1", "--retry-interval", "1ms", "--format", "json", "--level", "1"}, tt.args...)
			out, err := run(t, args...)
			if err != nil {
				t.Fatalf("submaps error: %v", err)
			}
			if n := atomic.LoadInt32(&m.constCalls); n != 2 {
				t.Errorf("Expected the constants request to be sent twice, got %d", n)
			}
			result := decode(t, out)
			if len(result.Submaps) != 1 || result.Submaps[0].Entities[0] != "inner" {
				t.Errorf("Expected the inner frame, got %v", result.Submaps)
			}
		})
	}
}
