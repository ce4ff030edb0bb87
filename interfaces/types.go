package interfaces

import "encoding/json"

// ZeroBlinder is the registry's placeholder for a blinding factor it does not know.
const ZeroBlinder = "0000000000000000000000000000000000000000000000000000000000000000"

// NetworkInfo is the subset of getnetworkinfo used to identify the node.
type NetworkInfo struct {
	Version    int    `json:"version"`
	Subversion string `json:"subversion"`
}

// BlockchainInfo is the subset of getblockchaininfo used to check sync status.
type BlockchainInfo struct {
	Chain                string  `json:"chain"`
	Blocks               int64   `json:"blocks"`
	VerificationProgress float64 `json:"verificationprogress"`
}

// Outpoint references a transaction output.
type Outpoint struct {
	TxID string `json:"txid"`
	Vout uint32 `json:"vout"`
}

// Unspent is a listunspent entry. The node's JSON is kept verbatim for forwarding.
type Unspent struct {
	TxID   string  `json:"txid"`
	Vout   uint32  `json:"vout"`
	Asset  string  `json:"asset"`
	Amount float64 `json:"amount"`

	raw json.RawMessage
}

func (u *Unspent) UnmarshalJSON(data []byte) error {
	type plain Unspent
	if err := json.Unmarshal(data, (*plain)(u)); err != nil {
		return err
	}
	u.raw = keepRaw(data)
	return nil
}

func (u Unspent) MarshalJSON() ([]byte, error) {
	if len(u.raw) > 0 {
		return u.raw, nil
	}
	type plain Unspent
	return json.Marshal(plain(u))
}

// Outpoint returns the output reference of the unspent entry.
func (u Unspent) Outpoint() Outpoint {
	return Outpoint{TxID: u.TxID, Vout: u.Vout}
}

// TxDetail is an entry of the gettransaction "details" array.
type TxDetail struct {
	Address       string  `json:"address,omitempty"`
	Category      string  `json:"category"`
	Amount        float64 `json:"amount"`
	Asset         string  `json:"asset,omitempty"`
	Vout          uint32  `json:"vout"`
	AssetBlinder  string  `json:"assetblinder,omitempty"`
	AmountBlinder string  `json:"amountblinder,omitempty"`

	raw json.RawMessage
}

func (d *TxDetail) UnmarshalJSON(data []byte) error {
	type plain TxDetail
	if err := json.Unmarshal(data, (*plain)(d)); err != nil {
		return err
	}
	d.raw = keepRaw(data)
	return nil
}

func (d TxDetail) MarshalJSON() ([]byte, error) {
	if len(d.raw) > 0 {
		return d.raw, nil
	}
	type plain TxDetail
	return json.Marshal(plain(d))
}

// WalletTransaction is the subset of gettransaction used by the workflow.
type WalletTransaction struct {
	TxID          string     `json:"txid"`
	Confirmations int64      `json:"confirmations"`
	BlockHash     string     `json:"blockhash,omitempty"`
	Details       []TxDetail `json:"details"`
}

// Issuance is a listissuances entry. The node's JSON is kept verbatim for forwarding.
type Issuance struct {
	TxID         string  `json:"txid"`
	Vin          int     `json:"vin"`
	IsReissuance bool    `json:"isreissuance"`
	Asset        string  `json:"asset"`
	AssetAmount  float64 `json:"assetamount"`

	raw json.RawMessage
}

func (i *Issuance) UnmarshalJSON(data []byte) error {
	type plain Issuance
	if err := json.Unmarshal(data, (*plain)(i)); err != nil {
		return err
	}
	i.raw = keepRaw(data)
	return nil
}

func (i Issuance) MarshalJSON() ([]byte, error) {
	if len(i.raw) > 0 {
		return i.raw, nil
	}
	type plain Issuance
	return json.Marshal(plain(i))
}

// ReissuanceOutput identifies a reissuance input: the transaction and the input index
// spending the reissuance token.
type ReissuanceOutput struct {
	TxID string `json:"txid"`
	Vin  int    `json:"vin"`
}

// LostOutputs is the registry's balance view of outputs it can no longer track.
type LostOutputs struct {
	LostOutputs           []Outpoint `json:"lost_outputs"`
	ReissuanceLostOutputs []Outpoint `json:"reissuance_lost_outputs"`
}

// Assignment is an entry of the registry's assignment list for an asset.
type Assignment struct {
	ID                   int64  `json:"id"`
	RegisteredUser       int64  `json:"registered_user"`
	Amount               int64  `json:"amount"`
	ReceivingAddress     string `json:"receiving_address,omitempty"`
	DistributionUUID     string `json:"distribution_uuid,omitempty"`
	ReadyForDistribution bool   `json:"ready_for_distribution"`
	IsDistributed        bool   `json:"is_distributed"`
}

// AssetTransaction is an entry of the registry's transaction list for an asset.
type AssetTransaction struct {
	TxID    string          `json:"txid"`
	Outputs []AssetTxOutput `json:"outputs"`
}

// AssetTxOutput is an output of an AssetTransaction as the registry knows it.
type AssetTxOutput struct {
	Vout          uint32 `json:"vout"`
	AssetBlinder  string `json:"asset_blinder"`
	AmountBlinder string `json:"amount_blinder"`
}

// ReissueConfirmPayload is posted to assets/{uuid}/reissue-confirm.
type ReissueConfirmPayload struct {
	Details          []TxDetail       `json:"details"`
	ReissuanceOutput ReissuanceOutput `json:"reissuance_output"`
	ListIssuances    []Issuance       `json:"listissuances"`
}

// DistributionConfirmPayload is posted to assets/{uuid}/distributions/{d}/confirm.
type DistributionConfirmPayload struct {
	TxData     DistributionTxData `json:"tx_data"`
	ChangeData []Unspent          `json:"change_data"`
}

type DistributionTxData struct {
	Details []TxDetail `json:"details"`
	TxID    string     `json:"txid"`
}

// BurnConfirmPayload is posted to assets/{uuid}/burn-confirm.
type BurnConfirmPayload struct {
	TxData     BurnTxData `json:"tx_data"`
	ChangeData []Unspent  `json:"change_data"`
}

type BurnTxData struct {
	TxID string `json:"txid"`
}

// BlinderUpdate is posted to assets/{uuid}/update-blinders, one output per request.
type BlinderUpdate struct {
	TxID          string `json:"txid"`
	Vout          uint32 `json:"vout"`
	AssetBlinder  string `json:"asset_blinder"`
	AmountBlinder string `json:"amount_blinder"`
}

func keepRaw(data []byte) json.RawMessage {
	raw := make(json.RawMessage, len(data))
	copy(raw, data)
	return raw
}
