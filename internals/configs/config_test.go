package configs

import "testing"

func TestPaymentProviderDefault(t *testing.T) {
	cases := []struct {
		env, provider string
		want          string
	}{
		{"development", "", "stub"},
		{"production", "", ""},
		{"staging", "", ""},
		{"production", "Midtrans", "midtrans"},
		{"production", "stub", "stub"},
	}
	for _, c := range cases {
		t.Setenv("APP_ENV", c.env)
		t.Setenv("PAYMENT_PROVIDER", c.provider)
		if got := Load().Payment.Provider; got != c.want {
			t.Errorf("APP_ENV=%s PAYMENT_PROVIDER=%q: provider = %q, want %q", c.env, c.provider, got, c.want)
		}
	}
}
