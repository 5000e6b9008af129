// Copyright 2024 Ross Light
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//		 https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package asciidoc

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome of parsing one document in [Parser.ParseAll].
type Result struct {
	Document    *Document
	Diagnostics []Diagnostic
}

// ParseAll parses each source concurrently with the parser's options.
// Each parse has its own attribute environment.
// Results are returned in the same order as sources.
// ParseAll returns early with the context's error if ctx is canceled;
// documents not yet parsed are nil in that case.
func (p *Parser) ParseAll(ctx context.Context, sources [][]byte) ([]Result, error) {
	results := make([]Result, len(sources))
	if len(sources) == 0 {
		return results, nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(runtime.GOMAXPROCS(0), len(sources)))
	for i, source := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, diags := p.Parse(source)
			results[i] = Result{Document: doc, Diagnostics: diags}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
