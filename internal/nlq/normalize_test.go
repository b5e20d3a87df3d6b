package nlq

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  Сколько   ВСЕГО просмотров?  ", "сколько всего просмотров?"},
		{"Ёлки и ещё ёжики", "елки и еще ежики"},
		{"одна\tстрока\n из  многих", "одна строка из многих"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
