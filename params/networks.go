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

package params

// 网络 ID 与链 ID：
// 网络 ID（net_version）用于 devp2p 层区分网络，链 ID（EIP-155）用于交易签名防重放。
// 公共网络上两者通常相同，但 Ganache 等本地链的网络 ID（5777）与链 ID（1337）不同。

// Network ids of the public and local chains the toolchain knows by name.
const (
	MainnetNetworkID uint64 = 1
	RopstenNetworkID uint64 = 3
	GoerliNetworkID  uint64 = 5
	SepoliaNetworkID uint64 = 11155111
	HoleskyNetworkID uint64 = 17000
	GanacheNetworkID uint64 = 5777
	DevChainID       uint64 = 1337
)

// NetworkNames maps well-known network ids to their canonical names.
var NetworkNames = map[uint64]string{
	MainnetNetworkID: "mainnet",
	RopstenNetworkID: "ropsten",
	GoerliNetworkID:  "goerli",
	SepoliaNetworkID: "sepolia",
	HoleskyNetworkID: "holesky",
	GanacheNetworkID: "ganache",
	DevChainID:       "dev",
}

// EtherscanAPIs maps chain ids to the Etherscan-compatible API endpoint and the
// explorer used to build links for verified contracts.
// EtherscanAPIs 将链 ID 映射到 Etherscan 兼容的 API 端点和浏览器地址。
var EtherscanAPIs = map[uint64]struct {
	API      string
	Explorer string
}{
	MainnetNetworkID: {"https://api.etherscan.io/api", "https://etherscan.io"},
	RopstenNetworkID: {"https://api-ropsten.etherscan.io/api", "https://ropsten.etherscan.io"},
	GoerliNetworkID:  {"https://api-goerli.etherscan.io/api", "https://goerli.etherscan.io"},
	SepoliaNetworkID: {"https://api-sepolia.etherscan.io/api", "https://sepolia.etherscan.io"},
	HoleskyNetworkID: {"https://api-holesky.etherscan.io/api", "https://holesky.etherscan.io"},
}
