package service

import (
	"regexp"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"marathon_backend/internals/configs"
)

func TestGenerateOTP(t *testing.T) {
	six := regexp.MustCompile(`^\d{6}$`)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := GenerateOTP()
		if err != nil {
			t.Fatal(err)
		}
		if !six.MatchString(code) {
			t.Fatalf("otp %q is not six digits", code)
		}
		seen[code] = true
	}
	if len(seen) < 45 {
		t.Fatalf("only %d distinct codes in 50 draws", len(seen))
	}
}

func TestCheckAdminCredentials(t *testing.T) {
	plain := configs.AuthConfig{AdminMobile: "9000000000", AdminPassword: "s3cret"}
	if !CheckAdminCredentials(plain, "9000000000", "s3cret") {
		t.Fatal("plain password rejected")
	}
	if CheckAdminCredentials(plain, "9000000000", "s3cre") || CheckAdminCredentials(plain, "900000000", "s3cret") {
		t.Fatal("wrong credentials accepted")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	hashed := configs.AuthConfig{AdminMobile: "9000000000", AdminPassword: string(hash)}
	if !CheckAdminCredentials(hashed, "9000000000", "s3cret") {
		t.Fatal("bcrypt password rejected")
	}
	if CheckAdminCredentials(hashed, "9000000000", string(hash)) {
		t.Fatal("hash itself must not work as the password")
	}
}
