package postversions

import (
	"fmt"

	"booru-sync/core/reconcile"
	"booru-sync/core/utils"
)

// TableName is the table holding the mirrored history.
const TableName = "post_versions"

// Columns lists the columns of the table in storage order. It doubles as the
// field projection of every remote request.
var Columns = []string{
	"id",
	"post_id",
	"added_tags",
	"removed_tags",
	"updater_id",
	"updated_at",
	"rating",
	"rating_changed",
	"parent_id",
	"parent_changed",
	"source",
	"source_changed",
	"version",
}

// PostVersion is one row of post_versions.
type PostVersion struct {
	ID            uint64 `gorm:"column:id;primaryKey;autoIncrement:false"`
	PostID        uint32 `gorm:"column:post_id;index"`
	AddedTags     string `gorm:"column:added_tags"`
	RemovedTags   string `gorm:"column:removed_tags"`
	UpdaterID     uint32 `gorm:"column:updater_id"`
	Rating        string `gorm:"column:rating"`
	RatingChanged bool   `gorm:"column:rating_changed"`
	ParentID      uint32 `gorm:"column:parent_id"`
	ParentChanged bool   `gorm:"column:parent_changed"`
	Source        string `gorm:"column:source"`
	SourceChanged bool   `gorm:"column:source_changed"`
	Version       uint32 `gorm:"column:version"`
	UpdatedAt     string `gorm:"column:updated_at;autoUpdateTime:false"`
}

func (PostVersion) TableName() string {
	return TableName
}

// Record converts the row into the reconcile representation. The row itself is the payload.
func (p PostVersion) Record() reconcile.VersionRecord {
	return reconcile.VersionRecord{
		SequenceID: p.ID,
		ItemID:     p.PostID,
		Revision:   p.Version,
		Payload:    p,
	}
}

// fromRecord recovers the row from a record. Records without a PostVersion
// payload only carry the key columns.
func fromRecord(rec reconcile.VersionRecord) PostVersion {
	switch p := rec.Payload.(type) {
	case PostVersion:
		return p
	case *PostVersion:
		return *p
	default:
		return PostVersion{ID: rec.SequenceID, PostID: rec.ItemID, Version: rec.Revision}
	}
}

// apiVersion is a post version as returned by the remote API.
// Every field except the key columns may be null.
type apiVersion struct {
	ID            *uint64  `json:"id"`
	PostID        *uint32  `json:"post_id"`
	AddedTags     []string `json:"added_tags"`
	RemovedTags   []string `json:"removed_tags"`
	UpdaterID     *uint32  `json:"updater_id"`
	UpdatedAt     *string  `json:"updated_at"`
	Rating        *string  `json:"rating"`
	RatingChanged *bool    `json:"rating_changed"`
	ParentID      *uint32  `json:"parent_id"`
	ParentChanged *bool    `json:"parent_changed"`
	Source        *string  `json:"source"`
	SourceChanged *bool    `json:"source_changed"`
	Version       *uint32  `json:"version"`
}

func (v apiVersion) model() (PostVersion, error) {
	if v.ID == nil || v.PostID == nil || v.Version == nil {
		return PostVersion{}, fmt.Errorf("post version without id, post_id or version")
	}

	updatedAt, err := utils.NormalizeTimestamp(utils.Deref(v.UpdatedAt))
	if err != nil {
		return PostVersion{}, fmt.Errorf("post version %d: %w", *v.ID, err)
	}

	return PostVersion{
		ID:            *v.ID,
		PostID:        *v.PostID,
		AddedTags:     utils.JoinTags(v.AddedTags),
		RemovedTags:   utils.JoinTags(v.RemovedTags),
		UpdaterID:     utils.Deref(v.UpdaterID),
		Rating:        utils.Deref(v.Rating),
		RatingChanged: utils.Deref(v.RatingChanged),
		ParentID:      utils.Deref(v.ParentID),
		ParentChanged: utils.Deref(v.ParentChanged),
		Source:        utils.Deref(v.Source),
		SourceChanged: utils.Deref(v.SourceChanged),
		Version:       *v.Version,
		UpdatedAt:     updatedAt,
	}, nil
}
