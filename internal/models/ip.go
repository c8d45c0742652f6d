package models

import "time"

type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

func (t MediaType) Valid() bool {
	return t == MediaImage || t == MediaVideo
}

// IPMetadata is the user supplied description of a capture. Field order is
// significant: it fixes the JSON layout that the metadata hash is taken over.
type IPMetadata struct {
	Title       string    `json:"title" bson:"title" validate:"required,max=200"`
	Description string    `json:"description" bson:"description" validate:"required,max=5000"`
	IPType      MediaType `json:"ipType" bson:"ip_type" validate:"required,oneof=image video"`
	Creators    []string  `json:"creators" bson:"creators"`
	CaptureDate string    `json:"captureDate" bson:"capture_date" validate:"required"`
	DeviceInfo  string    `json:"deviceInfo,omitempty" bson:"device_info,omitempty"`
	Location    string    `json:"location,omitempty" bson:"location,omitempty"`
	Tags        []string  `json:"tags,omitempty" bson:"tags,omitempty" validate:"max=5,dive,required,max=50"`
}

// NFTMetadata is the token-level document bound to the minted NFT.
type NFTMetadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

type IPAsset struct {
	IPID               string     `bson:"_id" json:"ipId"`
	NFTContractAddress string     `bson:"nft_contract" json:"nftContractAddress"`
	TokenID            string     `bson:"token_id" json:"tokenId"`
	Owner              string     `bson:"owner" json:"owner"`
	Metadata           IPMetadata `bson:"metadata" json:"metadata"`
	MetadataURI        string     `bson:"metadata_uri" json:"metadataUri"`
	ContentURI         string     `bson:"content_uri" json:"ipfsUri"`
	TxHash             string     `bson:"tx_hash" json:"txHash"`
	RegisteredAt       time.Time  `bson:"registered_at" json:"registeredAt"`
	LicenseTermsID     string     `bson:"license_terms_id,omitempty" json:"licenseTermsId,omitempty"`
}

// OwnedAsset is one hit of the ownership scan.
type OwnedAsset struct {
	TokenID     string `json:"tokenId"`
	TokenURI    string `json:"tokenURI"`
	IPID        string `json:"ipId"`
	Owner       string `json:"owner"`
	NFTContract string `json:"nftContract"`
}

type Registration struct {
	IPID    string `json:"ipId"`
	TokenID string `json:"tokenId"`
	TxHash  string `json:"txHash"`
}
