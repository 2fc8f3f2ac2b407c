package mongo

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sngm3741/revision-landing-services/api/internal/notify"
	"github.com/sngm3741/revision-landing-services/api/internal/public/domain"
)

// UTMDocument はリードに埋め込まれる流入元パラメータ。未取得の項目は保存しない。
type UTMDocument struct {
	Source   *string `bson:"source,omitempty"`
	Medium   *string `bson:"medium,omitempty"`
	Campaign *string `bson:"campaign,omitempty"`
	Term     *string `bson:"term,omitempty"`
	Content  *string `bson:"content,omitempty"`
}

// LeadDocument は MongoDB 上での相談申込スキーマ。
type LeadDocument struct {
	ID                primitive.ObjectID `bson:"_id"`
	Name              string             `bson:"name"`
	Phone             string             `bson:"phone"`
	RevisionTypeID    int                `bson:"revisionTypeId"`
	RevisionTypeTitle string             `bson:"revisionTypeTitle"`
	UserAgent         *string            `bson:"userAgent,omitempty"`
	IPAddress         *string            `bson:"ipAddress,omitempty"`
	Referrer          *string            `bson:"referrer,omitempty"`
	UTM               UTMDocument        `bson:"utm"`
	Status            string             `bson:"status"`
	ConsentPrivacy    bool               `bson:"consentPrivacy"`
	CreatedAt         time.Time          `bson:"createdAt"`
}

// FailedNotificationDocument は送信できなかったスタッフ通知。
type FailedNotificationDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Target      string             `bson:"target"`
	LeadID      string             `bson:"leadId,omitempty"`
	Identifier  string             `bson:"identifier"`
	Text        string             `bson:"text"`
	Error       string             `bson:"error"`
	Attempts    int                `bson:"attempts"`
	Status      string             `bson:"status"`
	CreatedAt   time.Time          `bson:"createdAt"`
	LastTriedAt time.Time          `bson:"lastTriedAt"`
}

// newLeadDocument は lead.ID が指定されていればそれを _id に使う。
func newLeadDocument(lead *domain.Lead) (LeadDocument, error) {
	id := primitive.NewObjectID()
	if lead.ID != "" {
		parsed, err := primitive.ObjectIDFromHex(lead.ID)
		if err != nil {
			return LeadDocument{}, fmt.Errorf("invalid lead id %q: %w", lead.ID, err)
		}
		id = parsed
	}
	return LeadDocument{
		ID:                id,
		Name:              lead.Name,
		Phone:             lead.Phone,
		RevisionTypeID:    lead.RevisionTypeID,
		RevisionTypeTitle: lead.RevisionTypeTitle,
		UserAgent:         lead.UserAgent,
		IPAddress:         lead.IPAddress,
		Referrer:          lead.Referrer,
		UTM: UTMDocument{
			Source:   lead.UTM.Source,
			Medium:   lead.UTM.Medium,
			Campaign: lead.UTM.Campaign,
			Term:     lead.UTM.Term,
			Content:  lead.UTM.Content,
		},
		Status:         lead.Status,
		ConsentPrivacy: lead.ConsentPrivacy,
		CreatedAt:      lead.CreatedAt,
	}, nil
}

func mapLeadDocument(doc LeadDocument) domain.Lead {
	return domain.Lead{
		ID:                doc.ID.Hex(),
		Name:              doc.Name,
		Phone:             doc.Phone,
		RevisionTypeID:    doc.RevisionTypeID,
		RevisionTypeTitle: doc.RevisionTypeTitle,
		UserAgent:         doc.UserAgent,
		IPAddress:         doc.IPAddress,
		Referrer:          doc.Referrer,
		UTM: domain.UTMParams{
			Source:   doc.UTM.Source,
			Medium:   doc.UTM.Medium,
			Campaign: doc.UTM.Campaign,
			Term:     doc.UTM.Term,
			Content:  doc.UTM.Content,
		},
		Status:         doc.Status,
		ConsentPrivacy: doc.ConsentPrivacy,
		CreatedAt:      doc.CreatedAt.UTC(),
	}
}

func mapFailedNotificationDocument(doc FailedNotificationDocument) notify.FailedNotification {
	return notify.FailedNotification{
		ID:          doc.ID.Hex(),
		Target:      doc.Target,
		LeadID:      doc.LeadID,
		Identifier:  doc.Identifier,
		Text:        doc.Text,
		Error:       doc.Error,
		Attempts:    doc.Attempts,
		Status:      doc.Status,
		CreatedAt:   doc.CreatedAt.UTC(),
		LastTriedAt: doc.LastTriedAt.UTC(),
	}
}
