package registry

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ZaphenathABI is the subset of the Zaphenath contract interface used by the client.
const ZaphenathABI = `[
  {"type":"function","name":"createKey","stateMutability":"nonpayable","inputs":[
    {"name":"keyId","type":"bytes32"},{"name":"data","type":"bytes"},{"name":"timeout","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"deleteKey","stateMutability":"nonpayable","inputs":[
    {"name":"keyId","type":"bytes32"},{"name":"owner","type":"address"}],"outputs":[]},
  {"type":"function","name":"ping","stateMutability":"nonpayable","inputs":[
    {"name":"keyId","type":"bytes32"},{"name":"owner","type":"address"}],"outputs":[]},
  {"type":"function","name":"updateKey","stateMutability":"nonpayable","inputs":[
    {"name":"keyId","type":"bytes32"},{"name":"owner","type":"address"},{"name":"data","type":"bytes"},{"name":"timeout","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"setCustodian","stateMutability":"nonpayable","inputs":[
    {"name":"keyId","type":"bytes32"},{"name":"owner","type":"address"},{"name":"user","type":"address"},{"name":"role","type":"uint8"},{"name":"canPing","type":"bool"}],"outputs":[]},
  {"type":"function","name":"removeCustodian","stateMutability":"nonpayable","inputs":[
    {"name":"keyId","type":"bytes32"},{"name":"owner","type":"address"},{"name":"user","type":"address"}],"outputs":[]},
  {"type":"function","name":"readKey","stateMutability":"view","inputs":[
    {"name":"keyId","type":"bytes32"},{"name":"owner","type":"address"}],"outputs":[
    {"name":"","type":"bytes"}]}
]`

// Contract method names.
const (
	MethodCreateKey       = "createKey"
	MethodDeleteKey       = "deleteKey"
	MethodPing            = "ping"
	MethodUpdateKey       = "updateKey"
	MethodSetCustodian    = "setCustodian"
	MethodRemoveCustodian = "removeCustodian"
	MethodReadKey         = "readKey"
)

var zaphenathABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(ZaphenathABI))
	if err != nil {
		panic(err)
	}
	return parsed
}()

// ABI returns the parsed contract interface.
func ABI() abi.ABI {
	return zaphenathABI
}
