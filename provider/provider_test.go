// Copyright 2025 The contractkit Authors
// This file is part of the contractkit library.
//
// The contractkit library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The contractkit library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the contractkit library. If not, see <http://www.gnu.org/licenses/>.

package provider

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunyihoo/contractkit/accounts"
	"github.com/sunyihoo/contractkit/accounts/hdwallet"
	"github.com/sunyihoo/contractkit/params"
)

const testMnemonic = "test test test test test test test test test test test junk"

func newTestChain(t *testing.T) (*simulated.Backend, *hdwallet.Wallet) {
	t.Helper()
	w, err := hdwallet.NewWallet(testMnemonic, hdwallet.Options{NumberOfAddresses: 2})
	require.NoError(t, err)

	alloc := types.GenesisAlloc{}
	for _, addr := range w.Addresses() {
		alloc[addr] = types.Account{Balance: new(big.Int).Mul(big.NewInt(100), big.NewInt(params.Ether))}
	}
	sim := simulated.NewBackend(alloc)
	t.Cleanup(func() { sim.Close() })
	return sim, w
}

func TestHDWalletProviderConstructionIsOffline(t *testing.T) {
	p, err := NewHDWalletProvider(testMnemonic, "https://ropsten.infura.io/v3/0123456789abcdef", hdwallet.Options{})
	require.NoError(t, err)
	defer p.Close()

	accs, err := p.Accounts(context.Background())
	require.NoError(t, err)
	assert.Len(t, accs, params.DefaultNumberOfAddresses)
	assert.Equal(t, common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), accs[0])
}

func TestHDWalletProviderConstructionErrors(t *testing.T) {
	_, err := NewHDWalletProvider("", "https://example.org", hdwallet.Options{})
	assert.ErrorIs(t, err, accounts.ErrMissingMnemonic)

	_, err = NewHDWalletProvider(testMnemonic, "", hdwallet.Options{})
	assert.ErrorIs(t, err, ErrMissingURL)
}

func TestHDWalletProviderSendDynamicFee(t *testing.T) {
	sim, w := newTestChain(t)
	p := NewHDWalletProviderWithBackend(w, sim.Client())
	ctx := context.Background()

	from, to := w.Addresses()[0], w.Addresses()[1]
	hash, err := p.SendTransaction(ctx, from, &TxRequest{To: &to, Value: big.NewInt(1000)})
	require.NoError(t, err)
	sim.Commit()

	receipt, err := sim.Client().TransactionReceipt(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)
	assert.Equal(t, uint8(types.DynamicFeeTxType), receipt.Type)

	id, err := p.ChainID(ctx)
	require.NoError(t, err)
	assert.Equal(t, params.DevChainID, id.Uint64())
}

func TestHDWalletProviderSendLegacy(t *testing.T) {
	sim, w := newTestChain(t)
	p := NewHDWalletProviderWithBackend(w, sim.Client())
	ctx := context.Background()

	price, err := sim.Client().SuggestGasPrice(ctx)
	require.NoError(t, err)

	from, to := w.Addresses()[0], w.Addresses()[1]
	hash, err := p.SendTransaction(ctx, from, &TxRequest{To: &to, Gas: 21000, GasPrice: price})
	require.NoError(t, err)
	sim.Commit()

	receipt, err := sim.Client().TransactionReceipt(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, uint8(types.LegacyTxType), receipt.Type)
	assert.Equal(t, uint64(21000), receipt.GasUsed)
}

func TestHDWalletProviderNonceSequence(t *testing.T) {
	sim, w := newTestChain(t)
	p := NewHDWalletProviderWithBackend(w, sim.Client())
	ctx := context.Background()

	from, to := w.Addresses()[0], w.Addresses()[1]
	for i := 0; i < 3; i++ {
		_, err := p.SendTransaction(ctx, from, &TxRequest{To: &to, Value: big.NewInt(1)})
		require.NoError(t, err)
	}
	sim.Commit()

	nonce, err := sim.Client().NonceAt(ctx, from, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), nonce)
}

func TestHDWalletProviderRejectsForeignSender(t *testing.T) {
	sim, w := newTestChain(t)
	p := NewHDWalletProviderWithBackend(w, sim.Client())

	to := w.Addresses()[0]
	_, err := p.SendTransaction(context.Background(), common.Address{0xde, 0xad}, &TxRequest{To: &to})
	assert.Error(t, err)
}

func TestHDWalletProviderClosed(t *testing.T) {
	sim, w := newTestChain(t)
	p := NewHDWalletProviderWithBackend(w, sim.Client())
	p.Close()

	_, err := p.Backend(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

type fakeEthService struct {
	accounts []common.Address
	sent     []sendTxArgs
}

func (s *fakeEthService) Accounts() []common.Address { return s.accounts }

func (s *fakeEthService) SendTransaction(args sendTxArgs) (common.Hash, error) {
	s.sent = append(s.sent, args)
	return common.HexToHash("0x01"), nil
}

func TestHostProvider(t *testing.T) {
	svc := &fakeEthService{accounts: []common.Address{{0x01}, {0x02}}}
	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("eth", svc))
	defer server.Stop()

	p := NewHostProviderWithClient(rpc.DialInProc(server))
	defer p.Close()
	ctx := context.Background()

	accs, err := p.Accounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, svc.accounts, accs)

	hash, err := p.SendTransaction(ctx, accs[0], &TxRequest{Data: []byte{0x60, 0x80}, Gas: 90000, Value: big.NewInt(5)})
	require.NoError(t, err)
	assert.Equal(t, common.HexToHash("0x01"), hash)

	require.Len(t, svc.sent, 1)
	sent := svc.sent[0]
	assert.Equal(t, accs[0], sent.From)
	assert.Nil(t, sent.To)
	assert.Equal(t, uint64(90000), uint64(*sent.Gas))
	assert.Equal(t, int64(5), sent.Value.ToInt().Int64())
	assert.Equal(t, []byte{0x60, 0x80}, []byte(sent.Data))
}

func TestNewHostProviderURL(t *testing.T) {
	assert.Equal(t, "http://127.0.0.1:7545", NewHostProvider("127.0.0.1", 7545).URL())
}

func TestRedactURL(t *testing.T) {
	red := RedactURL("https://user:pw@ropsten.infura.io/v3/0123456789abcdef?x=1")
	assert.NotContains(t, red, "0123456789abcdef")
	assert.NotContains(t, red, "pw")
	assert.Contains(t, red, "ropsten.infura.io")
}
