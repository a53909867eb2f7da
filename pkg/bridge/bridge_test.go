package bridge

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/WhileEndless/go-httpmessage/pkg/factory"
	"github.com/WhileEndless/go-httpmessage/pkg/message"
	"github.com/WhileEndless/go-httpmessage/pkg/middleware"
	"github.com/WhileEndless/go-httpmessage/pkg/uri"
)

func TestToServerRequest(t *testing.T) {
	r := httptest.NewRequest("POST", "http://blog.example.com/api/posts?page=2", strings.NewReader("title=Hello&tag=a&tag=b"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.Header.Set("Cookie", "session=abc")
	r.Header.Add("X-Multi", "1")
	r.Header.Add("X-Multi", "2")

	req, err := ToServerRequest(r)
	if err != nil {
		t.Fatalf("ToServerRequest failed: %v", err)
	}

	if req.Method() != "POST" {
		t.Errorf("Expected POST, got %s", req.Method())
	}
	if req.URI().String() != "http://blog.example.com/api/posts?page=2" {
		t.Errorf("Unexpected URI %s", req.URI().String())
	}
	if req.HeaderLine("Host") != "blog.example.com" {
		t.Errorf("Expected Host header, got %q", req.HeaderLine("Host"))
	}
	if req.HeaderLine("X-Multi") != "1, 2" {
		t.Errorf("Expected both values, got %q", req.HeaderLine("X-Multi"))
	}
	if req.CookieParams()["session"] != "abc" {
		t.Errorf("Expected cookie params, got %v", req.CookieParams())
	}
	if req.QueryParams()["page"][0] != "2" {
		t.Errorf("Expected query params, got %v", req.QueryParams())
	}
	if v, _ := req.ServerParam("REQUEST_METHOD"); v != "POST" {
		t.Errorf("Expected REQUEST_METHOD, got %q", v)
	}

	form, ok := req.ParsedBody().(map[string][]string)
	if !ok {
		t.Fatalf("Expected form parsed body, got %T", req.ParsedBody())
	}
	if form["title"][0] != "Hello" || len(form["tag"]) != 2 {
		t.Errorf("Unexpected form %v", form)
	}
	if req.Body().String() != "title=Hello&tag=a&tag=b" {
		t.Errorf("Body should stay available, got %q", req.Body().String())
	}
}

func TestWriteResponse(t *testing.T) {
	resp, _ := message.JSON(201, map[string]int{"id": 7})
	resp = resp.WithAddedHeader("Set-Cookie", "a=1").WithAddedHeader("Set-Cookie", "b=2")

	rec := httptest.NewRecorder()
	if err := WriteResponse(rec, resp); err != nil {
		t.Fatal(err)
	}

	if rec.Code != 201 {
		t.Errorf("Expected 201, got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Unexpected Content-Type %q", rec.Header().Get("Content-Type"))
	}
	if len(rec.Header().Values("Set-Cookie")) != 2 {
		t.Errorf("Expected two cookies, got %v", rec.Header().Values("Set-Cookie"))
	}
	if rec.Body.String() != `{"id":7}` {
		t.Errorf("Unexpected body %q", rec.Body.String())
	}
}

func TestHandler_Pipeline(t *testing.T) {
	p := middleware.New(middleware.HandlerFunc(func(req message.ServerRequest) (message.Response, error) {
		return message.JSON(200, map[string]string{"path": req.URI().Path()})
	})).Pipe(middleware.NewAuth(factory.New(), "demo-token"))

	srv := httptest.NewServer(Handler(p, nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/posts")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != 401 {
		t.Errorf("Expected 401 without token, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest("GET", srv.URL+"/api/posts", nil)
	req.Header.Set("Authorization", "Bearer demo-token")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != 200 || string(body) != `{"path":"/api/posts"}` {
		t.Errorf("Unexpected response %d %s", resp.StatusCode, body)
	}
}

func TestHandler_Error(t *testing.T) {
	h := middleware.HandlerFunc(func(req message.ServerRequest) (message.Response, error) {
		return message.Response{}, stderrors.New("database down")
	})

	rec := httptest.NewRecorder()
	Handler(h, nil).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != 500 {
		t.Errorf("Expected 500, got %d", rec.Code)
	}
}

func TestToHTTPRequest_FromHTTPResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Echo-Host", r.Host)
		w.Header().Set("X-Echo-Auth", r.Header.Get("Authorization"))
		w.WriteHeader(202)
		w.Write(body)
	}))
	defer srv.Close()

	u := uri.MustParse(srv.URL + "/api/posts")
	out := message.NewRequest("PUT", u,
		message.Header("Authorization", "Bearer demo-token"),
		message.BodyString(`{"title":"x"}`),
	)

	httpReq, err := ToHTTPRequest(context.Background(), out)
	if err != nil {
		t.Fatalf("ToHTTPRequest failed: %v", err)
	}
	httpResp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		t.Fatal(err)
	}

	resp, err := FromHTTPResponse(httpResp)
	if err != nil {
		t.Fatalf("FromHTTPResponse failed: %v", err)
	}
	if resp.StatusCode() != 202 || resp.ReasonPhrase() != "Accepted" {
		t.Errorf("Unexpected status %d %q", resp.StatusCode(), resp.ReasonPhrase())
	}
	if resp.ProtocolVersion() != "1.1" {
		t.Errorf("Expected 1.1, got %s", resp.ProtocolVersion())
	}
	if resp.HeaderLine("X-Echo-Auth") != "Bearer demo-token" {
		t.Errorf("Authorization not forwarded, got %q", resp.HeaderLine("X-Echo-Auth"))
	}
	if resp.HeaderLine("X-Echo-Host") != out.HeaderLine("Host") {
		t.Errorf("Expected Host %q, got %q", out.HeaderLine("Host"), resp.HeaderLine("X-Echo-Host"))
	}
	if resp.Body().String() != `{"title":"x"}` {
		t.Errorf("Unexpected body %q", resp.Body().String())
	}
}

func TestProtocolVersion(t *testing.T) {
	tests := []struct {
		major, minor int
		expected     string
	}{
		{1, 1, "1.1"},
		{1, 0, "1.0"},
		{2, 0, "2"},
		{0, 0, "1.1"},
	}
	for _, tt := range tests {
		if got := protocolVersion(tt.major, tt.minor); got != tt.expected {
			t.Errorf("protocolVersion(%d, %d): expected %s, got %s", tt.major, tt.minor, tt.expected, got)
		}
	}
}
