// Copyright 2026 The ESSnoop Authors
// This file is part of ESSnoop.
//
// ESSnoop is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// ESSnoop is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with ESSnoop. If not, see <http://www.gnu.org/licenses/>.

package batch

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/Sparkhand/ESSnoop/etherscan"
)

func TestReadAddresses(t *testing.T) {
	list := `# contracts to analyze
0x1111111111111111111111111111111111111111

  0x2222222222222222222222222222222222222222  
not-an-address
0x1111111111111111111111111111111111111111
`
	ins, err := ReadAddresses(strings.NewReader(list), testLogger())
	require.NoError(t, err)
	require.Len(t, ins, 4)

	require.Equal(t, addr1, ins[0].Addr)
	require.NoError(t, ins[0].Err)
	require.Equal(t, "0x2222222222222222222222222222222222222222", ins[1].Line)
	require.Equal(t, addr2, ins[1].Addr)
	require.ErrorIs(t, ins[2].Err, etherscan.ErrInvalidAddress)
	require.Equal(t, "not-an-address", ins[2].Line)
	require.Equal(t, addr1, ins[3].Addr, "duplicates are kept")
}

func TestConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.Error(t, cfg.Validate(), "input is required")

	cfg.Input = "contracts.txt"
	require.NoError(t, cfg.Validate())
	require.Equal(t, "ethersolve_report.csv", cfg.Output)
	require.Equal(t, "EtherSolve.jar", cfg.Jar)

	limit, burst := cfg.RateLimit()
	require.Equal(t, 3, burst)
	require.Equal(t, rate.Every(2*time.Second/3), limit)

	cfg.EtherscanRequests = 0
	limit, _ = cfg.RateLimit()
	require.Equal(t, rate.Inf, limit)

	cfg.Concurrency = 0
	require.Error(t, cfg.Validate())
}
