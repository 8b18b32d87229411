package domain

import "testing"

func TestPolicyValid(t *testing.T) {
	for _, p := range []Policy{PolicyLatest, PolicyTrending, PolicyForYou, PolicyFollowing} {
		if !p.Valid() {
			t.Fatalf("policy %q should be valid", p)
		}
	}
	for _, p := range []Policy{"", "hot", "LATEST", "foryou"} {
		if Policy(p).Valid() {
			t.Fatalf("policy %q should be invalid", p)
		}
	}
}

func TestPolicyPersonalized(t *testing.T) {
	if PolicyLatest.Personalized() || PolicyTrending.Personalized() {
		t.Fatal("public policies must not require identity")
	}
	if !PolicyForYou.Personalized() || !PolicyFollowing.Personalized() {
		t.Fatal("for-you and following must require identity")
	}
}

func TestCacheKeyString(t *testing.T) {
	tests := []struct {
		name string
		key  CacheKey
		want string
	}{
		{
			name: "public feed without options",
			key:  CacheKey{Policy: PolicyLatest, Limit: 20},
			want: "feed:latest:-:start:20:all",
		},
		{
			name: "personalized with everything set",
			key:  CacheKey{Policy: PolicyForYou, UserID: "u1", Cursor: "abc", Limit: 10, Category: "football"},
			want: "feed:for-you:u1:abc:10:football",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestCacheKeyDistinguishesPolicies(t *testing.T) {
	a := CacheKey{Policy: PolicyLatest, Limit: 20}
	b := CacheKey{Policy: PolicyTrending, Limit: 20}
	if a.String() == b.String() {
		t.Fatal("different policies must never share a cache key")
	}
}
