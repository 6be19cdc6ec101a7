// Copyright (C) 2020-2026, Flowgate Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package chainclient documents the external chain-RPC interfaces the
// engine's block-witnesser and ingress-egress paths consume (spec §6
// "External interfaces" — "Chain client"). These are collaborator
// contracts, not core responsibilities: a real implementation lives
// per-chain (an EVM JSON-RPC client, a Bitcoin Core RPC client, ...)
// outside this module, and is expected to honor the "may return stale
// data, may fail, is retried" semantics spec.md calls out.
package chainclient

import (
	"context"
	"time"

	"github.com/flowgate/validator-core/blockwitness"
)

// Height is the remote chain's block height, matching
// blockwitness.Height.
type Height = blockwitness.Height

// Header is a chain client's view of one block: enough to feed BHW's
// reorg detection (hash/parent_hash) plus the bloom filter ingress-egress
// uses to cheaply skip blocks with no relevant logs (spec §6
// "header_at(height) -> Header{index, hash, parent_hash, logs_bloom}").
type Header struct {
	Height     Height
	Hash       blockwitness.BlockHash
	ParentHash blockwitness.BlockHash
	LogsBloom  []byte
}

// ToWitnessHeader narrows Header to the blockwitness.Header shape BHW
// actually consumes, dropping LogsBloom.
func (h Header) ToWitnessHeader() blockwitness.Header {
	return blockwitness.Header{Height: h.Height, Hash: h.Hash, ParentHash: h.ParentHash}
}

// BlockBody is a chain client's view of one block's contents, sufficient
// for the block-data witnesser's rules (spec §4.5) to inspect transactions
// for relevant deposits/egresses.
type BlockBody struct {
	Header       Header
	Transactions [][]byte
}

// Source is the chain-RPC collaborator interface named in spec §6: BHW
// polls HeaderAt/BestBlock to build its ChainProgress stream, and BW calls
// Block to fetch a height's contents once BHW reports it as confirmed.
// SubscribeBlocks is the push-based alternative to polling BestBlock.
type Source interface {
	HeaderAt(ctx context.Context, height Height) (Header, error)
	Block(ctx context.Context, height Height) (BlockBody, error)
	BestBlock(ctx context.Context) (Header, error)
	SubscribeBlocks(ctx context.Context) (<-chan Header, error)
}

// MempoolSource is the age-0 pre-witness signal source described in
// SPEC_FULL.md §C.1 ("Mempool-aware Bitcoin pre-witnessing",
// original_source/btc_mempool.rs): a pre-witness rule may consult
// unconfirmed mempool transactions in addition to confirmed block bodies,
// for chains (Bitcoin-flavoured) where that is meaningful.
type MempoolSource interface {
	MempoolTransactions(ctx context.Context) ([][]byte, error)
}

// MergeBlockStream implements the "merged block stream" pattern from
// SPEC_FULL.md §C.2 (original_source/merged_block_stream.rs): it coalesces
// a push-based head subscription with a polling fallback into one
// deduplicated Header stream, so a chain client missing a reliable
// subscription transport (or one that silently stalls) still makes
// progress. Headers are deduplicated by height: a polled header for a
// height already delivered via heads is dropped.
func MergeBlockStream(ctx context.Context, heads <-chan Header, pollInterval time.Duration, poll func(ctx context.Context) (Header, error)) <-chan Header {
	out := make(chan Header)
	go func() {
		defer close(out)
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()

		var lastHeight Height
		seen := false
		emit := func(h Header) {
			if seen && h.Height <= lastHeight {
				return
			}
			lastHeight, seen = h.Height, true
			select {
			case out <- h:
			case <-ctx.Done():
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case h, ok := <-heads:
				if !ok {
					heads = nil
					continue
				}
				emit(h)
			case <-ticker.C:
				h, err := poll(ctx)
				if err != nil {
					continue
				}
				emit(h)
			}
		}
	}()
	return out
}
