// Copyright 2024 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package utils

import (
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
)

// ReportChainMetrics logs the chain meters of the default registry. It does
// nothing unless metrics collection is on.
func ReportChainMetrics() {
	if !metrics.Enabled {
		return
	}
	var names []string
	all := make(map[string]interface{})
	metrics.DefaultRegistry.Each(func(name string, m interface{}) {
		if strings.HasPrefix(name, "chain/") {
			names = append(names, name)
			all[name] = m
		}
	})
	sort.Strings(names)
	for _, name := range names {
		switch m := all[name].(type) {
		case metrics.Gauge:
			log.Info("Chain metric", "name", name, "value", m.Snapshot().Value())
		case metrics.ResettingTimer:
			s := m.Snapshot()
			log.Info("Chain metric", "name", name, "count", s.Count(),
				"mean", time.Duration(s.Mean()), "max", time.Duration(s.Max()))
		}
	}
}
