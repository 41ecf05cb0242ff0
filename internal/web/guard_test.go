package web

import "testing"

func TestBlockedInternalAddresses(t *testing.T) {
	blocked := []string{
		"http://localhost:8080/admin",
		"http://127.0.0.1/",
		"https://0.0.0.0",
		"http://[::1]:3000",
		"http://10.1.2.3/internal",
		"http://172.16.0.1",
		"http://172.31.255.255",
		"http://192.168.1.1/router",
		"http://169.254.169.254/latest/meta-data",
	}
	for _, url := range blocked {
		if !Blocked(url) {
			t.Fatalf("expected %s to be blocked", url)
		}
	}
}

func TestBlockedPublicAddresses(t *testing.T) {
	allowed := []string{
		"https://example.com",
		"https://example.com:8443/path?q=1",
		"http://8.8.8.8",
		"https://172.32.0.1",
		"https://sub.domain.example.org",
	}
	for _, url := range allowed {
		if Blocked(url) {
			t.Fatalf("expected %s to be allowed", url)
		}
	}
}

func TestBlockedMalformedURL(t *testing.T) {
	if !Blocked("http://%zz") {
		t.Fatalf("expected malformed URL to be blocked")
	}
	if !Blocked("not a url at all") {
		t.Fatalf("expected hostless input to be blocked")
	}
}

func TestBlockedCaseInsensitiveHost(t *testing.T) {
	if !Blocked("http://LOCALHOST/") {
		t.Fatalf("expected uppercase localhost to be blocked")
	}
}
