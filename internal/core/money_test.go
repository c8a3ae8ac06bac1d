package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"0", 0, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"12.344", 1234, true},
		{" 2.50 ", 250, true},
		{"100000000000", 1e13, true},
		{"100000000000.01", 0, false},
		{"90000000000000000", 0, false},
		{"-1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			require.NoError(t, err, tc.in)
			require.Equal(t, tc.out, got.Cents, tc.in)
		} else {
			require.Error(t, err, tc.in)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(Money{Cents: 150050})
	require.NoError(t, err)
	require.Equal(t, "1500.5", string(b))

	b, err = json.Marshal(Money{Cents: -20000})
	require.NoError(t, err)
	require.Equal(t, "-200", string(b))

	var m Money
	require.NoError(t, json.Unmarshal([]byte("1500.505"), &m))
	require.Equal(t, int64(150051), m.Cents)

	require.NoError(t, json.Unmarshal([]byte("1e3"), &m))
	require.Equal(t, int64(100000), m.Cents)

	require.ErrorIs(t, json.Unmarshal([]byte(`"12"`), &m), ErrInvalidAmount)
	require.ErrorIs(t, json.Unmarshal([]byte(`true`), &m), ErrInvalidAmount)
	require.ErrorIs(t, json.Unmarshal([]byte(`-3`), &m), ErrNegativeAmount)
	require.ErrorIs(t, json.Unmarshal([]byte(`1e30`), &m), ErrInvalidAmount)
}

func TestMoneyFormat(t *testing.T) {
	cases := map[int64]string{
		0:         "$ 0",
		150000:    "$ 1.500",
		150050:    "$ 1.500,50",
		123456789: "$ 1.234.567,89",
		-20005:    "-$ 200,05",
	}
	for cents, want := range cases {
		require.Equal(t, want, Money{Cents: cents}.Format())
	}
}

func TestMoneyPercent(t *testing.T) {
	income := Money{Cents: 150000}
	require.Equal(t, Money{Cents: 75000}, income.Percent(50))
	require.Equal(t, Money{Cents: 45000}, income.Percent(30))
	require.Equal(t, Money{Cents: 30000}, income.Percent(20))
	require.Equal(t, Money{Cents: 2}, Money{Cents: 5}.Percent(30), "1.5 cents rounds half-up")
}
