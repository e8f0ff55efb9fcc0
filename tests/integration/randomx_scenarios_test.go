// Package integration exercises the rxvm proof-of-work core end-to-end,
// covering the scenarios named in spec.md §8: determinism across repeated
// runs, light-vs-async-worker equivalence, and full-dataset-vs-light
// equivalence. These scenarios each run the full 2048-iteration interpreter
// loop per nonce and are skipped under -short.
package integration

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/extenami/RandomX/internal/crypto"
	"github.com/extenami/RandomX/internal/rxvm"
)

func skipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("full VM scenarios are too slow for -short")
	}
}

func TestScenarioRepeatRunsAreByteIdentical(t *testing.T) {
	skipIfShort(t)
	seed := []byte("integration-seed")
	nonce := []byte{0, 0, 0, 0}

	cache, err := rxvm.NewCache(crypto.SeedHash(seed), rxvm.AesExpander{})
	require.NoError(t, err)

	var digests [3]crypto.Hash
	for i := range digests {
		vm, err := rxvm.NewVM(rxvm.ModeLight, cache, nil)
		require.NoError(t, err)
		digests[i] = vm.Execute(seed, nonce)
		vm.Close()
	}
	require.Equal(t, digests[0], digests[1])
	require.Equal(t, digests[0], digests[2])
}

func TestScenarioLightAsyncMatchesLightAcrossNonces(t *testing.T) {
	skipIfShort(t)
	seed := []byte("integration-seed-2")

	cache, err := rxvm.NewCache(crypto.SeedHash(seed), rxvm.AesExpander{})
	require.NoError(t, err)

	for nonce := uint32(0); nonce < 4; nonce++ {
		var nonceBlob [4]byte
		nonceBlob[0] = byte(nonce)

		vmLight, err := rxvm.NewVM(rxvm.ModeLight, cache, nil)
		require.NoError(t, err)
		dLight := vmLight.Execute(seed, nonceBlob[:])
		vmLight.Close()

		vmAsync, err := rxvm.NewVM(rxvm.ModeLightAsync, cache, nil)
		require.NoError(t, err)
		dAsync := vmAsync.Execute(seed, nonceBlob[:])
		vmAsync.Close()

		require.Equalf(t, dLight, dAsync, "nonce %d", nonce)
	}
}

func TestScenarioFullDatasetMatchesLight(t *testing.T) {
	skipIfShort(t)
	seed := []byte("integration-seed-3")

	cache, err := rxvm.NewCache(crypto.SeedHash(seed), rxvm.AesExpander{})
	require.NoError(t, err)
	dataset, err := rxvm.NewDataset(cache, 4)
	require.NoError(t, err)

	for nonce := uint32(0); nonce < 4; nonce++ {
		var nonceBlob [4]byte
		nonceBlob[0] = byte(nonce)

		vmLight, err := rxvm.NewVM(rxvm.ModeLight, cache, nil)
		require.NoError(t, err)
		dLight := vmLight.Execute(seed, nonceBlob[:])
		vmLight.Close()

		vmFull, err := rxvm.NewVM(rxvm.ModeFull, cache, dataset)
		require.NoError(t, err)
		dFull := vmFull.Execute(seed, nonceBlob[:])
		vmFull.Close()

		require.Equalf(t, dLight, dFull, "nonce %d", nonce)
	}
}

func TestScenarioMultiThreadedMatchesSingleThreadedMultiset(t *testing.T) {
	skipIfShort(t)
	seed := []byte("integration-seed-4")
	const nonceCount = 8

	cache, err := rxvm.NewCache(crypto.SeedHash(seed), rxvm.AesExpander{})
	require.NoError(t, err)

	single := make(map[crypto.Hash]int)
	for nonce := uint32(0); nonce < nonceCount; nonce++ {
		var nonceBlob [4]byte
		nonceBlob[0] = byte(nonce)
		vm, err := rxvm.NewVM(rxvm.ModeLight, cache, nil)
		require.NoError(t, err)
		single[vm.Execute(seed, nonceBlob[:])]++
		vm.Close()
	}

	type result struct{ digest crypto.Hash }
	results := make(chan result, nonceCount)
	var nonces = make(chan uint32, nonceCount)
	for n := uint32(0); n < nonceCount; n++ {
		nonces <- n
	}
	close(nonces)

	const workers = 4
	done := make(chan struct{})
	for w := 0; w < workers; w++ {
		go func() {
			vm, err := rxvm.NewVM(rxvm.ModeLight, cache, nil)
			require.NoError(t, err)
			defer vm.Close()
			for n := range nonces {
				var nonceBlob [4]byte
				nonceBlob[0] = byte(n)
				results <- result{vm.Execute(seed, nonceBlob[:])}
			}
			done <- struct{}{}
		}()
	}
	for w := 0; w < workers; w++ {
		<-done
	}
	close(results)

	multi := make(map[crypto.Hash]int)
	for r := range results {
		multi[r.digest]++
	}
	require.Equal(t, single, multi)
}
