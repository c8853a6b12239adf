package vpic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/WessleyAI/vincheck/engine/domain"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := New(Config{
		DecodeURL:     srv.URL + "/api/vehicles/decodevin",
		RecallsURL:    srv.URL + "/recalls/recallsByVehicle",
		ComplaintsURL: srv.URL + "/complaints/complaintsByVehicle",
	}, srv.Client())
	return c, srv
}

func TestNewDefaults(t *testing.T) {
	c := New(Config{}, nil)
	if c.cfg.DecodeURL != DefaultDecodeURL || c.cfg.RecallsURL != DefaultRecallsURL || c.cfg.ComplaintsURL != DefaultComplaintsURL {
		t.Fatalf("unexpected defaults: %+v", c.cfg)
	}
	if c.client == nil {
		t.Fatal("expected default http client")
	}
}

func TestDecodeVIN(t *testing.T) {
	var gotPath, gotFormat, gotUA string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotFormat = r.URL.Query().Get("format")
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"Count":3,"Message":"ok","Results":[
			{"Value":"HONDA","ValueId":"474","Variable":"Make","VariableId":26},
			{"Value":null,"ValueId":null,"Variable":"Trim","VariableId":38},
			{"Value":"2003","Variable":"Model Year","VariableId":29}]}`)
	})

	results, err := c.DecodeVIN(context.Background(), domain.VIN("1HGCM82633A004352"))
	if err != nil {
		t.Fatalf("DecodeVIN: %v", err)
	}
	if gotPath != "/api/vehicles/decodevin/1HGCM82633A004352" || gotFormat != "json" {
		t.Fatalf("unexpected request %s format=%s", gotPath, gotFormat)
	}
	if !strings.HasPrefix(gotUA, "vincheck/") {
		t.Fatalf("unexpected user agent %q", gotUA)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Value == nil || *results[0].Value != "HONDA" || results[0].VariableID != 26 {
		t.Fatalf("unexpected first result %+v", results[0])
	}
	if results[1].Value != nil {
		t.Fatal("null Value should decode to nil")
	}
}

func TestDecodeVIN_EmptyResultsIsUsable(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Count":0,"Results":[]}`)
	})
	results, err := c.DecodeVIN(context.Background(), "1HGCM82633A004352")
	if err != nil {
		t.Fatalf("empty array should not fail: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

func TestDecodeVIN_NoResultSet(t *testing.T) {
	bodies := []string{
		`{"Count":0,"Message":"error"}`,
		`{"Results":null}`,
		`{"Results":{"Variable":"Make"}}`,
		`<html>maintenance</html>`,
	}
	for _, body := range bodies {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, body)
		})
		_, err := c.DecodeVIN(context.Background(), "1HGCM82633A004352")
		if !errors.Is(err, ErrNoResults) {
			t.Errorf("%s: expected ErrNoResults, got %v", body, err)
		}
	}
}

func TestDecodeVIN_Status(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	_, err := c.DecodeVIN(context.Background(), "1HGCM82633A004352")
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected StatusError 503, got %v", err)
	}
	if errors.Is(err, ErrNoResults) {
		t.Fatal("status error must not look like an empty result set")
	}
}

func TestDecodeVIN_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(Config{DecodeURL: url}, http.DefaultClient)
	_, err := c.DecodeVIN(context.Background(), "1HGCM82633A004352")
	if err == nil || errors.Is(err, ErrNoResults) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestRecalls(t *testing.T) {
	var gotQuery string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		if r.URL.Path != "/recalls/recallsByVehicle" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"Count":2,"Message":"Results returned successfully","results":[
			{"Manufacturer":"Honda","NHTSACampaignNumber":"20V314000","ReportReceivedDate":"05/28/2020","Component":"FUEL SYSTEM","Summary":"Fuel pump may fail.","Consequence":"Stall.","Remedy":"Replace pump."},
			{"Manufacturer":"Honda","NHTSACampaignNumber":"21V001000","Component":"AIR BAGS"}]}`)
	})

	recalls, err := c.Recalls(context.Background(), "LAND ROVER", "RANGE ROVER & SPORT", "2020")
	if err != nil {
		t.Fatalf("Recalls: %v", err)
	}
	if gotQuery != "make=LAND+ROVER&model=RANGE+ROVER+%26+SPORT&modelYear=2020" {
		t.Fatalf("unexpected query %q", gotQuery)
	}
	if len(recalls) != 2 || recalls[0].NHTSACampaignNumber != "20V314000" || recalls[0].Remedy != "Replace pump." {
		t.Fatalf("unexpected recalls %+v", recalls)
	}
}

func TestRecalls_ResultsNotArray(t *testing.T) {
	for _, body := range []string{`{"Count":0,"Message":"No results"}`, `{"results":"none"}`, `{"results":null}`} {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, body)
		})
		recalls, err := c.Recalls(context.Background(), "HONDA", "CIVIC", "2020")
		if err != nil {
			t.Fatalf("%s: unexpected error %v", body, err)
		}
		if len(recalls) != 0 {
			t.Fatalf("%s: expected empty list, got %d", body, len(recalls))
		}
	}
}

func TestRecalls_Failure(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := c.Recalls(context.Background(), "HONDA", "CIVIC", "2020")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected wrapped StatusError, got %v", err)
	}
	if !strings.Contains(err.Error(), "recalls HONDA CIVIC 2020") {
		t.Fatalf("expected vehicle context in error, got %q", err.Error())
	}
}

func TestComplaints_CappedAtTen(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var b strings.Builder
		b.WriteString(`{"count":15,"message":"ok","results":[`)
		for i := 0; i < 15; i++ {
			if i > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(&b, `{"odiNumber":%d,"components":"ENGINE","summary":"s%d","dateComplaintFiled":"01/0%d/2024"}`, 1000+i, i, i%9+1)
		}
		b.WriteString(`]}`)
		fmt.Fprint(w, b.String())
	})

	complaints, err := c.Complaints(context.Background(), "HONDA", "CIVIC", "2020")
	if err != nil {
		t.Fatalf("Complaints: %v", err)
	}
	if len(complaints) != MaxComplaints {
		t.Fatalf("expected %d complaints, got %d", MaxComplaints, len(complaints))
	}
	for i, cp := range complaints {
		if cp.ODINumber != 1000+i {
			t.Fatalf("order broken at %d: %d", i, cp.ODINumber)
		}
	}
}

func TestComplaints_MalformedBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	})
	if _, err := c.Complaints(context.Background(), "HONDA", "CIVIC", "2020"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestStatusErrorMessage(t *testing.T) {
	err := &StatusError{URL: "http://x", Code: 500}
	if err.Error() != "unexpected status 500 from http://x" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
