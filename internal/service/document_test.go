package service_test

import (
	"os"
	"path/filepath"

	"github.com/dangerclosesec/qualitrack/internal/domain"
	"github.com/dangerclosesec/qualitrack/internal/mocks"
	"github.com/dangerclosesec/qualitrack/internal/model"
	"github.com/dangerclosesec/qualitrack/internal/repository"
	"github.com/dangerclosesec/qualitrack/internal/service"
	"github.com/google/uuid"
	"go.uber.org/mock/gomock"
)

func (s *ServiceSuite) createDocument(docType model.DocumentType, indicatorIDs ...uuid.UUID) *model.Document {
	doc, err := s.app.Documents.Create(s.ctx, s.tenant, service.CreateDocumentInput{
		Name:          "Procédure d'accueil",
		Type:          string(docType),
		FileReference: "documents/accueil.pdf",
		FileType:      "application/pdf",
		SizeBytes:     2048,
		IndicatorIDs:  indicatorIDs,
	})
	s.Require().NoError(err)
	return doc
}

func (s *ServiceSuite) TestDocuments_CompletionFollowsDocumentTypes() {
	s.seed(s.tenant)
	target := s.indicator(1)

	s.createDocument(model.DocumentProcedure, target.ID)
	got := s.indicator(1)
	s.Equal(50, got.CompletionRate)
	s.Equal(model.IndicatorInProgress, got.Status)
	s.Equal(1, got.ProcedureCount)

	s.createDocument(model.DocumentEvidence, target.ID)
	got = s.indicator(1)
	s.Equal(100, got.CompletionRate)
	s.Equal(model.IndicatorCompleted, got.Status)
	s.Equal(1, got.EvidenceCount)

	untouched := s.indicator(2)
	s.Equal(model.IndicatorNotStarted, untouched.Status)
}

func (s *ServiceSuite) TestDocuments_AttachDetachRoundTrip() {
	s.seed(s.tenant)
	first, second := s.indicator(5), s.indicator(6)
	doc := s.createDocument(model.DocumentEvidence, first.ID)
	before := s.indicator(6)

	attached, err := s.app.Documents.Attach(s.ctx, s.tenant, doc.ID, []uuid.UUID{second.ID})
	s.Require().NoError(err)
	s.ElementsMatch([]uuid.UUID{first.ID, second.ID}, attached.IndicatorIDs)
	s.Equal(50, s.indicator(6).CompletionRate)

	detached, err := s.app.Documents.Detach(s.ctx, s.tenant, doc.ID, second.ID)
	s.Require().NoError(err)
	s.Equal([]uuid.UUID{first.ID}, detached.IndicatorIDs)

	after := s.indicator(6)
	s.Equal(before.CompletionRate, after.CompletionRate)
	s.Equal(before.Status, after.Status)
	s.Equal(before.DocumentCounts(), after.DocumentCounts())

	_, err = s.app.Documents.Detach(s.ctx, s.tenant, doc.ID, second.ID)
	s.Require().ErrorIs(err, domain.ErrNotFound)
}

func (s *ServiceSuite) TestDocuments_ReplaceAssociationsRecomputesBothSides() {
	s.seed(s.tenant)
	from, to := s.indicator(7), s.indicator(8)
	doc := s.createDocument(model.DocumentModel, from.ID)
	s.Equal(50, s.indicator(7).CompletionRate)

	_, err := s.app.Documents.Associate(s.ctx, s.tenant, doc.ID, []uuid.UUID{to.ID})
	s.Require().NoError(err)
	s.Equal(0, s.indicator(7).CompletionRate)
	s.Equal(model.IndicatorNotStarted, s.indicator(7).Status)
	s.Equal(50, s.indicator(8).CompletionRate)
}

func (s *ServiceSuite) TestDocuments_ArchiveAndDeleteRestoreCompletion() {
	s.seed(s.tenant)
	target := s.indicator(9)
	s.createDocument(model.DocumentProcedure, target.ID)
	evidence := s.createDocument(model.DocumentEvidence, target.ID)
	s.Equal(100, s.indicator(9).CompletionRate)

	archived := string(model.DocumentArchived)
	_, err := s.app.Documents.Update(s.ctx, s.tenant, evidence.ID, service.UpdateDocumentInput{Status: &archived})
	s.Require().NoError(err)
	s.Equal(50, s.indicator(9).CompletionRate)

	active := string(model.DocumentActive)
	_, err = s.app.Documents.Update(s.ctx, s.tenant, evidence.ID, service.UpdateDocumentInput{Status: &active})
	s.Require().NoError(err)
	s.Equal(100, s.indicator(9).CompletionRate)

	s.Require().NoError(s.app.Documents.Delete(s.ctx, s.tenant, evidence.ID))
	s.Equal(50, s.indicator(9).CompletionRate)

	_, err = s.app.Documents.Get(s.ctx, s.tenant, evidence.ID)
	s.Require().ErrorIs(err, domain.ErrDocumentNotFound)
}

func (s *ServiceSuite) TestDocuments_ManualStatusHoldsUntilNextChange() {
	s.seed(s.tenant)
	target := s.indicator(10)

	completed := string(model.IndicatorCompleted)
	_, err := s.app.Indicators.Update(s.ctx, s.tenant, target.ID, service.UpdateIndicatorInput{Status: &completed})
	s.Require().NoError(err)
	s.Equal(model.IndicatorCompleted, s.indicator(10).Status)

	s.createDocument(model.DocumentProcedure, target.ID)
	s.Equal(model.IndicatorInProgress, s.indicator(10).Status)
}

func (s *ServiceSuite) TestDocuments_RejectsForeignIndicators() {
	s.seed(s.tenant)
	other := s.otherTenant()
	s.seed(other)

	var foreign model.Indicator
	s.Require().NoError(s.db.Where("organization_id = ? AND number = 1", other.OrganizationID).First(&foreign).Error)

	_, err := s.app.Documents.Create(s.ctx, s.tenant, service.CreateDocumentInput{
		Name:          "Charte",
		Type:          string(model.DocumentModel),
		FileReference: "documents/charte.pdf",
		IndicatorIDs:  []uuid.UUID{foreign.ID},
	})
	s.Require().ErrorIs(err, domain.ErrForeignIndicator)

	var count int64
	s.Require().NoError(s.db.Model(&model.Document{}).Count(&count).Error)
	s.Zero(count)
}

func (s *ServiceSuite) TestDocuments_ValidatesPayload() {
	_, err := s.app.Documents.Create(s.ctx, s.tenant, service.CreateDocumentInput{Name: "x", Type: "memo"})
	var verr *domain.ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Contains(verr.Fields, "type")
	s.Contains(verr.Fields, "file_reference")
}

func (s *ServiceSuite) TestDocuments_ListPaginates() {
	s.seed(s.tenant)
	for range 3 {
		s.createDocument(model.DocumentEvidence, s.indicator(11).ID)
	}
	s.createDocument(model.DocumentProcedure)

	page, err := s.app.Documents.List(s.ctx, s.tenant, repository.DocumentFilter{Type: model.DocumentEvidence}, repository.Page{Page: 1, Limit: 2})
	s.Require().NoError(err)
	s.EqualValues(3, page.TotalItems)
	s.Equal(2, page.TotalPages)
	s.Len(page.Items, 2)
}

func (s *ServiceSuite) TestDocuments_UploadStoresFile() {
	s.seed(s.tenant)
	target := s.indicator(12)

	doc, err := s.app.Documents.Upload(s.ctx, s.tenant, service.UploadDocumentInput{
		Filename:     "plan.txt",
		Data:         []byte("plan de formation 2026"),
		Type:         string(model.DocumentEvidence),
		IndicatorIDs: []uuid.UUID{target.ID},
	})
	s.Require().NoError(err)
	s.Equal("plan.txt", doc.Name)
	s.Contains(doc.FileType, "text/plain")
	s.EqualValues(len("plan de formation 2026"), doc.SizeBytes)
	s.NotEmpty(doc.FileReference)

	url, err := s.app.Documents.URL(s.ctx, s.tenant, doc.ID)
	s.Require().NoError(err)
	s.Contains(url, "/files/")
}

func (s *ServiceSuite) TestDocuments_FailedUploadRemovesStoredFile() {
	s.seed(s.tenant)
	ctrl := gomock.NewController(s.T())
	files := mocks.NewMockFileStore(ctrl)

	docs := service.NewDocumentService(
		repository.NewTxManager(s.db),
		repository.NewDocumentRepository(s.db),
		repository.NewIndicatorRepository(s.db),
		files,
		service.DefaultCompletionPolicy(),
		s.clock,
		nil,
	)

	data := []byte("%PDF-1.4 rapport")
	const ref = "documents/rapport.pdf"
	files.EXPECT().Store(gomock.Any(), data, gomock.Any()).Return(ref, nil)
	files.EXPECT().Delete(gomock.Any(), ref).Return(true, nil)

	_, err := docs.Upload(s.ctx, s.tenant, service.UploadDocumentInput{
		Filename:     "rapport.pdf",
		Data:         data,
		Type:         string(model.DocumentEvidence),
		IndicatorIDs: []uuid.UUID{uuid.New()},
	})
	s.Require().ErrorIs(err, domain.ErrForeignIndicator)
}

func (s *ServiceSuite) upload(t domain.Tenant, filename, content string) *model.Document {
	doc, err := s.app.Documents.Upload(s.ctx, t, service.UploadDocumentInput{
		Filename: filename,
		Data:     []byte(content),
		Type:     string(model.DocumentEvidence),
	})
	s.Require().NoError(err)
	return doc
}

func (s *ServiceSuite) storedFileExists(ref string) bool {
	_, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(ref)))
	return err == nil
}

func (s *ServiceSuite) TestDocuments_DeleteKeepsOtherOrganizationsFile() {
	other := s.otherTenant()
	secret := s.upload(other, "secret.txt", "bilan confidentiel")
	s.Require().True(s.storedFileExists(secret.FileReference))

	borrowed, err := s.app.Documents.Create(s.ctx, s.tenant, service.CreateDocumentInput{
		Name:          "Copie",
		Type:          string(model.DocumentEvidence),
		FileReference: secret.FileReference,
	})
	s.Require().NoError(err)
	s.Require().NoError(s.app.Documents.Delete(s.ctx, s.tenant, borrowed.ID))
	s.True(s.storedFileExists(secret.FileReference))

	again, err := s.app.Documents.Create(s.ctx, s.tenant, service.CreateDocumentInput{
		Name:          "Copie",
		Type:          string(model.DocumentEvidence),
		FileReference: "documents/placeholder.pdf",
	})
	s.Require().NoError(err)
	moved := secret.FileReference
	_, err = s.app.Documents.Update(s.ctx, s.tenant, again.ID, service.UpdateDocumentInput{FileReference: &moved})
	s.Require().NoError(err)
	replacement := "documents/other.pdf"
	_, err = s.app.Documents.Update(s.ctx, s.tenant, again.ID, service.UpdateDocumentInput{FileReference: &replacement})
	s.Require().NoError(err)
	s.True(s.storedFileExists(secret.FileReference))
}

func (s *ServiceSuite) TestDocuments_SharedFileRemovedWithLastDocument() {
	first := s.upload(s.tenant, "charte.txt", "charte qualité")
	second, err := s.app.Documents.Create(s.ctx, s.tenant, service.CreateDocumentInput{
		Name:          "Charte (version affichée)",
		Type:          string(model.DocumentModel),
		FileReference: first.FileReference,
	})
	s.Require().NoError(err)

	s.Require().NoError(s.app.Documents.Delete(s.ctx, s.tenant, first.ID))
	s.True(s.storedFileExists(first.FileReference))

	s.Require().NoError(s.app.Documents.Delete(s.ctx, s.tenant, second.ID))
	s.False(s.storedFileExists(first.FileReference))
}

func (s *ServiceSuite) TestDocuments_FileDeleteFailureIsBestEffort() {
	ctrl := gomock.NewController(s.T())
	files := mocks.NewMockFileStore(ctrl)
	docs := service.NewDocumentService(
		repository.NewTxManager(s.db),
		repository.NewDocumentRepository(s.db),
		repository.NewIndicatorRepository(s.db),
		files,
		service.DefaultCompletionPolicy(),
		s.clock,
		nil,
	)

	dir := "2026/10/documents/" + s.tenant.OrganizationID.String()
	original := dir + "/programme-0a0b0c0d0e0f.txt"
	replacement := dir + "/programme-1a1b1c1d1e1f.txt"
	gomock.InOrder(
		files.EXPECT().Store(gomock.Any(), gomock.Any(), gomock.Any()).Return(original, nil),
		files.EXPECT().Store(gomock.Any(), gomock.Any(), gomock.Any()).Return(replacement, nil),
		files.EXPECT().Delete(gomock.Any(), original).Return(false, domain.ErrStorage),
		files.EXPECT().Delete(gomock.Any(), replacement).Return(false, domain.ErrStorage),
	)

	doc, err := docs.Upload(s.ctx, s.tenant, service.UploadDocumentInput{
		Filename: "programme.txt",
		Data:     []byte("programme v1"),
		Type:     string(model.DocumentProcedure),
	})
	s.Require().NoError(err)

	replaced, err := docs.ReplaceFile(s.ctx, s.tenant, doc.ID, "programme.txt", []byte("programme v2"))
	s.Require().NoError(err)
	s.Equal(replacement, replaced.FileReference)

	s.Require().NoError(docs.Delete(s.ctx, s.tenant, doc.ID))
	_, err = docs.Get(s.ctx, s.tenant, doc.ID)
	s.ErrorIs(err, domain.ErrDocumentNotFound)
}
