package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/czh0526/btc-descriptors/descriptor"
	"github.com/czh0526/btc-descriptors/internal/prompt"
	"github.com/czh0526/btc-descriptors/netparams"
	"github.com/czh0526/btc-descriptors/snacl"
	"github.com/czh0526/btc-descriptors/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testMnemonic = "abandon abandon abandon abandon abandon abandon " +
		"abandon abandon abandon abandon abandon about"

	testXpub = "xpub661MyMwAqRbcFtXgS5sYJABqqG9YLmC4Q1Rdap9gSE8NqtwybGhe" +
		"PY2gZ29ESFjqJoCu1Rupje8YtGqsefD265TMg7usUDFdp6W1EGMcet8"

	testAddr = "1LqBGSKuX5yYUonjxT5qGfpUsXKYYWeabA"
)

func TestRunChecksum(t *testing.T) {
	var out bytes.Buffer
	cmd := &checksumCommand{}

	cmd.Args.Descriptor = "raw(deadbeef)"
	require.NoError(t, runChecksum(&out, cmd))
	assert.Equal(t, "raw(deadbeef)#89f8spxm\n", out.String())

	out.Reset()
	cmd.Args.Descriptor = "raw(deadbeef)#89f8spxm"
	require.NoError(t, runChecksum(&out, cmd))
	assert.Equal(t, "raw(deadbeef)#89f8spxm\n", out.String())

	cmd.Args.Descriptor = "raw(deadbeef)#00000000"
	err := runChecksum(io.Discard, cmd)
	var descErr descriptor.Error
	require.ErrorAs(t, err, &descErr)
	assert.Equal(t, descriptor.ErrChecksumMismatch, descErr.ErrorCode)
}

func TestRunInfo(t *testing.T) {
	var out bytes.Buffer
	cmd := &infoCommand{}

	cmd.Args.Descriptor = "wpkh([73c5da0a/84h/0h/0h]" + testXpub + "/<0;1>/*)"
	require.NoError(t, runInfo(&out, cmd, &netparams.MainNetParams))
	text := out.String()
	assert.Contains(t, text, "requires chain:         true")
	assert.Contains(t, text, "requires address index: true")
	assert.Contains(t, text, "combo:                  false")
	assert.Contains(t, text, "base key:               "+testXpub)
	assert.Contains(t, text, "[73c5da0a/84'/0'/0']"+testXpub+"/<0;1>/*")
	assert.NotContains(t, text, "address:  ")

	out.Reset()
	cmd.Args.Descriptor = "addr(" + testAddr + ")"
	require.NoError(t, runInfo(&out, cmd, &netparams.MainNetParams))
	assert.Contains(t, out.String(), "address:                "+testAddr)

	cmd.Args.Descriptor = "wpkh("
	assert.Error(t, runInfo(io.Discard, cmd, &netparams.MainNetParams))
}

func TestRunDerive(t *testing.T) {
	var out bytes.Buffer
	cmd := &deriveCommand{From: 5, Count: 3}

	cmd.Args.Descriptor = "pkh(" + testXpub + "/*)"
	require.NoError(t, runDerive(&out, cmd, &netparams.MainNetParams))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	for i, prefix := range []string{"5 1", "6 1", "7 1"} {
		assert.True(t, strings.HasPrefix(lines[i], prefix), lines[i])
	}

	out.Reset()
	cmd.Args.Descriptor = "addr(" + testAddr + ")"
	require.NoError(t, runDerive(&out, cmd, &netparams.MainNetParams))
	assert.Equal(t, "0 "+testAddr+"\n", out.String())

	cmd.Args.Descriptor = "wpkh(" + testXpub + "/<0;1>/*)"
	err := runDerive(io.Discard, cmd, &netparams.MainNetParams)
	assert.ErrorIs(t, err, errChainRequired)

	cmd.Chain = "internal"
	out.Reset()
	require.NoError(t, runDerive(&out, cmd, &netparams.MainNetParams))
	assert.Len(t, strings.Fields(out.String()), 6)

	cmd.Count = 10001
	assert.Error(t, runDerive(io.Discard, cmd, &netparams.MainNetParams))

	cmd.From, cmd.Count = 1<<31-1, 2
	assert.Error(t, runDerive(io.Discard, cmd, &netparams.MainNetParams))

	combo := &deriveCommand{Count: 3}
	combo.Args.Descriptor = "combo(" + testXpub + "/*)"
	out.Reset()
	require.NoError(t, runDerive(&out, combo, &netparams.MainNetParams))
	assert.Empty(t, out.String())

	combo.Combo = "wpkh"
	require.NoError(t, runDerive(&out, combo, &netparams.MainNetParams))
	lines = strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	for i, prefix := range []string{"0 bc1q", "1 bc1q", "2 bc1q"} {
		assert.True(t, strings.HasPrefix(lines[i], prefix), lines[i])
	}

	combo.Combo = "tr"
	assert.Error(t, runDerive(io.Discard, combo, &netparams.MainNetParams))
}

func TestWalletCommands(t *testing.T) {
	dir := t.TempDir()

	cfg, err := loadConfig([]string{"--appdata", dir, "create"})
	require.NoError(t, err)
	cfg.scryptOptions = &snacl.FastScryptOptions

	input := "yes\n" + testMnemonic + "\n\npassphrase\npassphrase\n"
	var out bytes.Buffer
	err = createWallet(
		cfg, prompt.New(strings.NewReader(input), io.Discard), &out,
	)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "created successfully")

	cfg, err = loadConfig([]string{
		"--appdata", dir, "serve", "--rpclisten", "127.0.0.1:0",
	})
	require.NoError(t, err)

	loader := wallet.NewLoader(cfg.activeNet.Params, cfg.netDir(), true,
		cfg.DBTimeout)
	_, err = loader.OpenExistingWallet()
	require.NoError(t, err)

	server, addrs, err := startRPCServer(cfg, loader)
	require.NoError(t, err)
	require.Len(t, addrs, 1)
	t.Cleanup(func() {
		server.Stop()
		_ = loader.UnloadWallet()
	})

	ctx := context.Background()
	rpcServer := addrs[0].String()

	next := &nextCommand{
		RPCServer: rpcServer,
		Chain:     "external",
		Count:     1,
	}
	next.Args.Name = "bip84-0"
	out.Reset()
	require.NoError(t, runNext(ctx, &out, next))
	assert.Equal(t, "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu\n",
		out.String())

	imp := &importCommand{RPCServer: rpcServer, Name: "legacy"}
	imp.Args.Descriptor = "addr(" + testAddr + ")"
	out.Reset()
	require.NoError(t, runImport(ctx, &out, imp))
	assert.Equal(t, "Imported legacy: addr("+testAddr+")\n", out.String())

	next = &nextCommand{RPCServer: rpcServer, Count: 3}
	next.Args.Name = "legacy"
	out.Reset()
	require.NoError(t, runNext(ctx, &out, next))
	assert.Equal(t, testAddr+"\n", out.String())

	next.Args.Name = "missing"
	assert.Error(t, runNext(ctx, io.Discard, next))
	assert.Error(t, runImport(ctx, io.Discard, imp))
}

func TestCreateWatchingOnlyWallet(t *testing.T) {
	dir := t.TempDir()

	cfg, err := loadConfig([]string{
		"--appdata", dir, "--regtest", "create", "--watchingonly",
	})
	require.NoError(t, err)

	err = createWallet(cfg, prompt.New(strings.NewReader(""), io.Discard),
		io.Discard)
	require.NoError(t, err)

	loader := wallet.NewLoader(cfg.activeNet.Params, cfg.netDir(), true,
		cfg.DBTimeout)
	w, err := loader.OpenExistingWallet()
	require.NoError(t, err)
	defer loader.UnloadWallet()

	descs, err := w.Descriptors()
	require.NoError(t, err)
	assert.Empty(t, descs)
	assert.ErrorIs(t, w.Unlock([]byte("anything")), wallet.ErrWatchingOnly)
}
