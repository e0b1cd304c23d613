package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ErikTechForce/TechForcePortal-sub000/model"
	"github.com/ErikTechForce/TechForcePortal-sub000/pkg/logger"
	"github.com/google/uuid"
)

var (
	// ErrInvalidPDF is returned when a submitted payload is not a PDF.
	ErrInvalidPDF = errors.New("invalid pdf payload")
	// ErrInvalidFormData is returned when embedded link data cannot be
	// decoded.
	ErrInvalidFormData = errors.New("invalid contract data in link")
	// ErrWrongStage is returned when a contract is requested for an order
	// outside the Contract stage.
	ErrWrongStage = errors.New("order is not in Contract stage")
)

// Archiver receives a copy of each signed PDF. Optional; archiving is
// best-effort and never blocks the signing transition.
type Archiver interface {
	ArchiveSignedPDF(ctx context.Context, contractID string, pdf []byte) error
}

// Contracts runs the signing-link workflow: mint an unguessable id for an
// order in Contract stage, render the filled draft for the public page, and
// accept exactly one signed submission.
type Contracts struct {
	store         Store
	lifecycle     *Lifecycle
	generator     *Generator
	archiver      Archiver
	publicBaseURL string
	counterSigPNG []byte
}

func NewContracts(store Store, lifecycle *Lifecycle, generator *Generator, archiver Archiver, publicBaseURL string, counterSigPNG []byte) *Contracts {
	return &Contracts{
		store:         store,
		lifecycle:     lifecycle,
		generator:     generator,
		archiver:      archiver,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		counterSigPNG: counterSigPNG,
	}
}

// NewContractID mints the public link token: a UUIDv4 with separators
// stripped, 122 bits of randomness, with no derivable relation to the order
// number. The token is the only access control on the link.
func NewContractID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// EncodeFormData packs the field snapshot into a URL-safe fragment value.
func EncodeFormData(formData map[string]string) (string, error) {
	data, err := json.Marshal(formData)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeFormData is the inverse of EncodeFormData. Garbled input yields
// ErrInvalidFormData.
func DecodeFormData(encoded string) (map[string]string, error) {
	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormData, err)
	}
	var formData map[string]string
	if err := json.Unmarshal(data, &formData); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormData, err)
	}
	return formData, nil
}

// Generate mints a pending contract for an order in Contract stage and
// returns the share URL. The form-data snapshot is persisted with the row so
// there is a server-side record of what the client was offered; the same
// snapshot rides in the URL fragment for the public page to render from.
func (s *Contracts) Generate(ctx context.Context, orderNumber, templateID string, formData map[string]string, actingUser string) (*model.Contract, string, error) {
	order, err := s.store.GetOrder(ctx, orderNumber)
	if err != nil {
		return nil, "", err
	}
	if order.Stage != model.StageContract {
		return nil, "", ErrWrongStage
	}
	if _, ok := LookupTemplate(templateID); !ok {
		return nil, "", fmt.Errorf("%w: unknown template %q", ErrTemplateLoad, templateID)
	}

	snapshot, err := json.Marshal(formData)
	if err != nil {
		return nil, "", err
	}

	contract := &model.Contract{
		ContractID:  NewContractID(),
		OrderNumber: orderNumber,
		TemplateID:  templateID,
		Status:      model.ContractPending,
		FormData:    string(snapshot),
		GeneratedAt: time.Now(),
	}
	if err := s.store.CreateContract(ctx, contract); err != nil {
		return nil, "", err
	}

	if _, err := s.lifecycle.Append(ctx, orderNumber, fmt.Sprintf("Contract link generated (%s agreement)", templateID), actingUser); err != nil {
		return nil, "", err
	}

	fragment, err := EncodeFormData(formData)
	if err != nil {
		return nil, "", err
	}
	shareURL := fmt.Sprintf("%s/sign/%s#d=%s", s.publicBaseURL, contract.ContractID, fragment)

	logger.Info(ctx, "contract link generated",
		"order_number", orderNumber,
		"contract_id", contract.ContractID,
		"template", templateID,
	)
	return contract, shareURL, nil
}

// Status returns pending or signed for a contract id.
func (s *Contracts) Status(ctx context.Context, contractID string) (string, error) {
	contract, err := s.store.GetContract(ctx, contractID)
	if err != nil {
		return "", err
	}
	return contract.Status, nil
}

// RenderDraft fills the contract's template for the public review page. When
// formData is nil the server-side snapshot is used, so a tampered URL
// fragment cannot change what is rendered for signing. Strokes, when
// present, are rasterized and embedded so the client previews the final
// document. Refused once signed.
func (s *Contracts) RenderDraft(ctx context.Context, contractID string, formData map[string]string, strokes []Stroke) ([]byte, error) {
	contract, err := s.store.GetContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if contract.Status == model.ContractSigned {
		return nil, ErrAlreadySigned
	}

	if formData == nil {
		if err := json.Unmarshal([]byte(contract.FormData), &formData); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormData, err)
		}
	}

	signaturePNG, err := RasterizeStrokes(strokes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageEmbed, err)
	}

	return s.generator.FillTemplate(ctx, contract.TemplateID, formData, signaturePNG, s.counterSigPNG)
}

// Submit accepts the one signed PDF for a contract. The pending -> signed
// transition is enforced by the store as an atomic conditional write, so of
// two concurrent submissions exactly one wins; the other gets
// ErrAlreadySigned with the stored bytes untouched.
func (s *Contracts) Submit(ctx context.Context, contractID, pdfBase64 string) error {
	contract, err := s.store.GetContract(ctx, contractID)
	if err != nil {
		return err
	}

	pdf, err := base64.StdEncoding.DecodeString(pdfBase64)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	if !strings.HasPrefix(string(pdf), "%PDF-") {
		return fmt.Errorf("%w: missing pdf header", ErrInvalidPDF)
	}

	signedAt := time.Now()
	if err := s.store.MarkSigned(ctx, contractID, pdf, signedAt); err != nil {
		return err
	}

	if _, err := s.lifecycle.Append(ctx, contract.OrderNumber, "Contract signed by client", model.SystemUser); err != nil {
		logger.Warn(ctx, "signed contract saved but activity append failed",
			"contract_id", contractID, "error", err)
	}

	if s.archiver != nil {
		if err := s.archiver.ArchiveSignedPDF(ctx, contractID, pdf); err != nil {
			logger.Warn(ctx, "signed pdf archive failed",
				"contract_id", contractID, "error", err)
		}
	}

	logger.Info(ctx, "contract signed",
		"order_number", contract.OrderNumber,
		"contract_id", contractID,
	)
	return nil
}

// SignedPDF returns the stored signed document, or ErrNotFound while the
// contract is still pending.
func (s *Contracts) SignedPDF(ctx context.Context, contractID string) ([]byte, error) {
	contract, err := s.store.GetContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if contract.Status != model.ContractSigned || len(contract.PDFSigned) == 0 {
		return nil, ErrNotFound
	}
	return contract.PDFSigned, nil
}
