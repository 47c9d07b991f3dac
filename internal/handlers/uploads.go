package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Mica1614/seims-ai-scanner/internal/config"
	"github.com/Mica1614/seims-ai-scanner/internal/httpjson"
	"github.com/Mica1614/seims-ai-scanner/internal/log"
	"github.com/Mica1614/seims-ai-scanner/internal/middleware"
	"github.com/Mica1614/seims-ai-scanner/internal/utils"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	credentialspb "cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"
	"github.com/rs/zerolog"
)

const (
	defaultExpiry = 900 * time.Second
	maxExpiry     = 3600 * time.Second
	maxBatchItems = 50
)

// SignBytesFunc signs a blob on behalf of the signing service account.
type SignBytesFunc func(ctx context.Context, b []byte) ([]byte, error)

// Uploads hands out V4 signed PUT URLs so scanner clients upload straight to the bucket.
type Uploads struct {
	bucket   string
	accessID string
	prefix   string
	sign     SignBytesFunc
	iam      *credentials.IamCredentialsClient
	now      func() time.Time
	logger   zerolog.Logger
}

// NewUploads signs through the IAM Credentials API. The IAM client is
// optional; without it every request fails with ErrSigningUnavailable.
func NewUploads(ctx context.Context, cfg config.Config) *Uploads {
	h := NewUploadsWithSigner(cfg, nil)
	if cfg.SignedURLServiceAccountEmail == "" {
		return h
	}
	iamClient, err := credentials.NewIamCredentialsClient(ctx)
	if err != nil {
		h.logger.Warn().Err(err).Msg("iam credentials client unavailable, signed urls disabled")
		return h
	}
	h.iam = iamClient
	name := fmt.Sprintf("projects/-/serviceAccounts/%s", cfg.SignedURLServiceAccountEmail)
	h.sign = func(ctx context.Context, b []byte) ([]byte, error) {
		resp, err := iamClient.SignBlob(ctx, &credentialspb.SignBlobRequest{
			Name:    name,
			Payload: b,
		})
		if err != nil {
			return nil, err
		}
		return resp.SignedBlob, nil
	}
	return h
}

func NewUploadsWithSigner(cfg config.Config, sign SignBytesFunc) *Uploads {
	return &Uploads{
		bucket:   cfg.Firebase.StorageBucket,
		accessID: cfg.SignedURLServiceAccountEmail,
		prefix:   cfg.UploadPrefix,
		sign:     sign,
		now:      time.Now,
		logger:   log.WithComponent("uploads"),
	}
}

func (h *Uploads) Close() error {
	if h == nil || h.iam == nil {
		return nil
	}
	return h.iam.Close()
}

type signedURLReq struct {
	FileName       string `json:"fileName"`
	ContentType    string `json:"contentType,omitempty"`
	ExpiresSeconds int64  `json:"expiresSeconds,omitempty"`
}

type signedURLResp struct {
	URL        string `json:"url"`
	Method     string `json:"method"`
	ObjectPath string `json:"objectPath"`
	ExpiresAt  int64  `json:"expiresAt"`
	Error      string `json:"error,omitempty"`
}

func (h *Uploads) CreateSignedUploadURL(w http.ResponseWriter, r *http.Request) {
	au, ok := middleware.GetAuthUser(r.Context())
	if !ok || au.UID == "" {
		httpjson.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req signedURLReq
	if err := httpjson.Read(w, r, &req); err != nil || req.FileName == "" {
		httpjson.Error(w, http.StatusBadRequest, "fileName is required")
		return
	}
	out, err := h.signedURL(r.Context(), au.UID, req)
	if err != nil {
		status := http.StatusBadRequest
		if IsErrSigningUnavailable(err) {
			status = http.StatusServiceUnavailable
		}
		httpjson.Error(w, status, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, out)
}

type signedURLsReq struct {
	Items []signedURLReq `json:"items"`
}

func (h *Uploads) CreateSignedUploadURLs(w http.ResponseWriter, r *http.Request) {
	au, ok := middleware.GetAuthUser(r.Context())
	if !ok || au.UID == "" {
		httpjson.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req signedURLsReq
	if err := httpjson.Read(w, r, &req); err != nil || len(req.Items) == 0 {
		httpjson.Error(w, http.StatusBadRequest, "items is required")
		return
	}
	if len(req.Items) > maxBatchItems {
		httpjson.Error(w, http.StatusBadRequest, fmt.Sprintf("at most %d items per request", maxBatchItems))
		return
	}
	out := make([]signedURLResp, 0, len(req.Items))
	for _, it := range req.Items {
		resp, err := h.signedURL(r.Context(), au.UID, it)
		if err != nil {
			if IsErrSigningUnavailable(err) {
				httpjson.Error(w, http.StatusServiceUnavailable, err.Error())
				return
			}
			// partial success: report the failure in place
			out = append(out, signedURLResp{Method: http.MethodPut, Error: err.Error()})
			continue
		}
		out = append(out, *resp)
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"items": out})
}

func (h *Uploads) signedURL(ctx context.Context, uid string, req signedURLReq) (*signedURLResp, error) {
	if h.bucket == "" {
		return nil, fmt.Errorf("%w: storage bucket is not set", ErrSigningUnavailable)
	}
	if h.accessID == "" {
		return nil, fmt.Errorf("%w: SIGNED_URL_SERVICE_ACCOUNT_EMAIL is not set", ErrSigningUnavailable)
	}
	if h.sign == nil {
		return nil, fmt.Errorf("%w: no signer available", ErrSigningUnavailable)
	}

	objectPath, err := utils.ObjectPath(h.prefix, uid, req.FileName)
	if err != nil {
		return nil, fmt.Errorf("fileName %q: %w", req.FileName, err)
	}

	expiry := time.Duration(req.ExpiresSeconds) * time.Second
	if expiry <= 0 || expiry > maxExpiry {
		expiry = defaultExpiry
	}
	exp := h.now().Add(expiry)

	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	url, err := storage.SignedURL(h.bucket, objectPath, &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         http.MethodPut,
		Expires:        exp,
		ContentType:    contentType,
		GoogleAccessID: h.accessID,
		SignBytes: func(b []byte) ([]byte, error) {
			return h.sign(ctx, b)
		},
	})
	if err != nil {
		h.logger.Error().Err(err).Str("object", objectPath).Msg("sign url failed")
		return nil, errors.New("failed to sign url (check service account + permissions)")
	}

	return &signedURLResp{
		URL:        url,
		Method:     http.MethodPut,
		ObjectPath: objectPath,
		ExpiresAt:  exp.Unix(),
	}, nil
}
