package token

import (
	"strings"
	"testing"
)

func TestTokenGenerator_Generate(t *testing.T) {
	generator := NewTokenGenerator()

	tests := []struct {
		name   string
		prefix string
	}{
		{
			name:   "generate trusted device token",
			prefix: PrefixTrustedDevice,
		},
		{
			name:   "generate custom prefix token",
			prefix: "custom_",
		},
		{
			name:   "generate unprefixed token",
			prefix: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plainToken, hash, err := generator.Generate(tt.prefix)
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}

			if !strings.HasPrefix(plainToken, tt.prefix) {
				t.Errorf("plainToken = %v, want prefix %v", plainToken, tt.prefix)
			}

			if len(plainToken) != len(tt.prefix)+64 {
				t.Errorf("plainToken length = %d, want %d (prefix + 32 random bytes hex)", len(plainToken), len(tt.prefix)+64)
			}

			if len(hash) != 64 {
				t.Errorf("hash length = %d, want 64 (SHA256 hex)", len(hash))
			}

			if plainToken == hash {
				t.Error("plainToken and hash should be different")
			}
		})
	}
}

func TestTokenGenerator_Generate_Uniqueness(t *testing.T) {
	generator := NewTokenGenerator()

	token1, hash1, err1 := generator.Generate(PrefixTrustedDevice)
	if err1 != nil {
		t.Fatalf("Generate() error = %v", err1)
	}

	token2, hash2, err2 := generator.Generate(PrefixTrustedDevice)
	if err2 != nil {
		t.Fatalf("Generate() error = %v", err2)
	}

	if token1 == token2 {
		t.Error("tokens should be unique")
	}

	if hash1 == hash2 {
		t.Error("hashes should be unique")
	}
}

func TestTokenGenerator_Hash(t *testing.T) {
	generator := NewTokenGenerator()

	hash1 := generator.Hash("tdv_sample123")
	hash2 := generator.Hash("tdv_sample123")

	if hash1 != hash2 {
		t.Error("same token should produce same hash")
	}

	if len(hash1) != 64 {
		t.Errorf("hash length = %d, want 64 (SHA256 hex)", len(hash1))
	}

	if generator.Hash("tdv_other456") == hash1 {
		t.Error("different tokens should produce different hashes")
	}
}

func TestTokenGenerator_Verify(t *testing.T) {
	generator := NewTokenGenerator()

	plainToken, hash, err := generator.Generate(PrefixTrustedDevice)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	tests := []struct {
		name       string
		plainToken string
		hash       string
		want       bool
	}{
		{
			name:       "valid token verification",
			plainToken: plainToken,
			hash:       hash,
			want:       true,
		},
		{
			name:       "invalid token verification",
			plainToken: "tdv_invalid",
			hash:       hash,
			want:       false,
		},
		{
			name:       "invalid hash verification",
			plainToken: plainToken,
			hash:       "invalidhash",
			want:       false,
		},
		{
			name:       "empty token verification",
			plainToken: "",
			hash:       hash,
			want:       false,
		},
		{
			name:       "empty hash verification",
			plainToken: plainToken,
			hash:       "",
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := generator.Verify(tt.plainToken, tt.hash)
			if got != tt.want {
				t.Errorf("Verify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func BenchmarkTokenGenerator_Generate(b *testing.B) {
	generator := NewTokenGenerator()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = generator.Generate(PrefixTrustedDevice)
	}
}

func BenchmarkTokenGenerator_Verify(b *testing.B) {
	generator := NewTokenGenerator()
	plainToken, hash, _ := generator.Generate(PrefixTrustedDevice)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = generator.Verify(plainToken, hash)
	}
}
