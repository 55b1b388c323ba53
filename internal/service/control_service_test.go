package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leonelpereyra44/pestcontrol/internal/apperrors"
	"github.com/leonelpereyra44/pestcontrol/internal/collection"
	"github.com/leonelpereyra44/pestcontrol/internal/domain"
	"github.com/leonelpereyra44/pestcontrol/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testWorker = &domain.WorkerProfile{WorkerID: "t1", EmpresaID: "e1", Nombre: "Ana"}

// faultyRepo injects failures into the writer of an in-memory repository.
type faultyRepo struct {
	*repository.MemoryControlsRepo
	failPoints   error
	blockControl bool
}

func (r *faultyRepo) WithinTx(ctx context.Context, fn func(w repository.ControlWriter) error) error {
	return r.MemoryControlsRepo.WithinTx(ctx, func(w repository.ControlWriter) error {
		return fn(&faultyWriter{ControlWriter: w, repo: r})
	})
}

type faultyWriter struct {
	repository.ControlWriter
	repo *faultyRepo
}

func (w *faultyWriter) InsertControl(ctx context.Context, c *domain.Control) (*domain.Control, error) {
	if w.repo.blockControl {
		<-ctx.Done()
		return nil, apperrors.Remote("insert controles", ctx.Err())
	}
	return w.ControlWriter.InsertControl(ctx, c)
}

func (w *faultyWriter) InsertPoints(ctx context.Context, rows []domain.ControlPoint) error {
	if w.repo.failPoints != nil {
		return apperrors.Remote("insert control_puntos", w.repo.failPoints)
	}
	return w.ControlWriter.InsertPoints(ctx, rows)
}

// hangingTxRepo never gets a transaction started until ctx gives up.
type hangingTxRepo struct {
	*repository.MemoryControlsRepo
}

func (r *hangingTxRepo) WithinTx(ctx context.Context, _ func(w repository.ControlWriter) error) error {
	<-ctx.Done()
	return apperrors.Remote("begin", ctx.Err())
}

func newTestControlService(repo repository.ControlsRepository) *ControlService {
	return NewControlService(repo, time.Second, zap.NewNop())
}

func exampleForm() domain.ControlForm {
	return domain.ControlForm{ClienteID: "c1", TecnicoID: "t1", FechaControl: "2024-01-01", TipoControl: "preventivo"}
}

func TestCreate_EndToEnd(t *testing.T) {
	repo := repository.NewMemoryControlsRepo()
	svc := newTestControlService(repo)
	ctx := context.Background()

	products := collection.NewProducts()
	require.NoError(t, products.Add(collection.ProductInput{ProductoID: "p1", Cantidad: collection.Num(2), Unidad: "kg"}))
	points := collection.NewPoints()
	require.NoError(t, points.Add(collection.PointInput{Numero: collection.Num(1), TipoPlaga: domain.PlagaRoedores, Estado: domain.PuntoOK}))

	control, err := svc.Create(ctx, testWorker, exampleForm(), products, points, "t1/sello/x.png")
	require.NoError(t, err)
	require.NotEmpty(t, control.ControlID)
	assert.Equal(t, domain.EstadoCompletado, control.Estado)
	assert.Equal(t, "e1", control.EmpresaID)
	assert.Equal(t, "t1/sello/x.png", control.FirmaTecnico)
	assert.NotNil(t, control.CompletedAt)

	list, err := repo.ListControls(ctx, "e1", nil, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	savedProducts, err := repo.ListProducts(ctx, control.ControlID)
	require.NoError(t, err)
	require.Len(t, savedProducts, 1)
	assert.Equal(t, 2.0, savedProducts[0].CantidadUsada)
	assert.Equal(t, control.ControlID, savedProducts[0].ControlID)

	savedPoints, err := repo.ListPoints(ctx, control.ControlID)
	require.NoError(t, err)
	require.Len(t, savedPoints, 1)
	assert.Equal(t, 1, savedPoints[0].NumeroPunto)
	assert.False(t, savedPoints[0].ActividadDetectada)
}

func TestCreate_ValidationBeforeIO(t *testing.T) {
	repo := &faultyRepo{MemoryControlsRepo: repository.NewMemoryControlsRepo(), blockControl: true}
	svc := newTestControlService(repo)

	form := exampleForm()
	form.TecnicoID = ""
	_, err := svc.Create(context.Background(), testWorker, form, nil, nil, "")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	var saveErr *SaveError
	require.ErrorAs(t, err, &saveErr)
	assert.Equal(t, PhaseValidating, saveErr.Phase)
}

func TestCreate_ChildFailureLeavesNothing(t *testing.T) {
	repo := &faultyRepo{MemoryControlsRepo: repository.NewMemoryControlsRepo(), failPoints: errors.New("connection reset")}
	svc := newTestControlService(repo)
	ctx := context.Background()

	products := collection.NewProducts()
	require.NoError(t, products.Add(collection.ProductInput{ProductoID: "p1", Cantidad: collection.Num(1)}))
	points := collection.NewPoints()
	require.NoError(t, points.Add(collection.PointInput{Numero: collection.Num(1), TipoPlaga: domain.PlagaRoedores, Estado: domain.PuntoOK}))

	_, err := svc.Create(ctx, testWorker, exampleForm(), products, points, "")
	require.Error(t, err)
	assert.True(t, apperrors.IsRemote(err))

	var saveErr *SaveError
	require.ErrorAs(t, err, &saveErr)
	assert.Equal(t, PhaseWritingChildren, saveErr.Phase)

	list, err := repo.ListControls(ctx, "e1", nil, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreate_RemoteTimeout(t *testing.T) {
	repo := &faultyRepo{MemoryControlsRepo: repository.NewMemoryControlsRepo(), blockControl: true}
	svc := NewControlService(repo, 20*time.Millisecond, zap.NewNop())

	_, err := svc.Create(context.Background(), testWorker, exampleForm(), nil, nil, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	var saveErr *SaveError
	require.ErrorAs(t, err, &saveErr)
	assert.Equal(t, PhaseWritingParent, saveErr.Phase)
}

func TestCreate_HangingBeginIsBounded(t *testing.T) {
	repo := &hangingTxRepo{MemoryControlsRepo: repository.NewMemoryControlsRepo()}
	svc := NewControlService(repo, 10*time.Millisecond, zap.NewNop())

	done := make(chan error, 1)
	go func() {
		_, err := svc.Create(context.Background(), testWorker, exampleForm(), nil, nil, "")
		done <- err
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.True(t, apperrors.IsRemote(err))
	case <-time.After(2 * time.Second):
		t.Fatal("Create did not return while the transaction hung")
	}
}

func TestUpdate_ReplacesChildrenExactly(t *testing.T) {
	repo := repository.NewMemoryControlsRepo()
	svc := newTestControlService(repo)
	ctx := context.Background()

	oldPoints := collection.NewPoints()
	for i := 1; i <= 3; i++ {
		require.NoError(t, oldPoints.Add(collection.PointInput{Numero: collection.Num(float64(i)), TipoPlaga: domain.PlagaRoedores, Estado: domain.PuntoOK}))
	}
	control, err := svc.Create(ctx, testWorker, exampleForm(), nil, oldPoints, "")
	require.NoError(t, err)

	newPoints := collection.NewPoints()
	require.NoError(t, newPoints.Add(collection.PointInput{Numero: collection.Num(10), TipoPlaga: domain.PlagaVoladores, Estado: domain.PuntoConActividad}))
	require.NoError(t, newPoints.Add(collection.PointInput{Numero: collection.Num(11), TipoPlaga: domain.PlagaVoladores, Estado: domain.PuntoOK}))

	form := exampleForm()
	form.Observaciones = "revisita"
	updated, err := svc.Update(ctx, testWorker, control.ControlID, form, collection.NewProducts(), newPoints, "t1/sello/y.png")
	require.NoError(t, err)
	assert.Equal(t, "revisita", updated.Observaciones)
	assert.Equal(t, "t1/sello/y.png", updated.FirmaTecnico)

	points, err := repo.ListPoints(ctx, control.ControlID)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 10, points[0].NumeroPunto)
	assert.True(t, points[0].ActividadDetectada)
	assert.Equal(t, 11, points[1].NumeroPunto)
}

func TestUpdate_OtherCompanyIsNotFound(t *testing.T) {
	repo := repository.NewMemoryControlsRepo()
	svc := newTestControlService(repo)
	ctx := context.Background()

	control, err := svc.Create(ctx, testWorker, exampleForm(), nil, nil, "")
	require.NoError(t, err)

	intruder := &domain.WorkerProfile{WorkerID: "x", EmpresaID: "e2"}
	_, err = svc.Update(ctx, intruder, control.ControlID, exampleForm(), nil, nil, "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.Get(ctx, intruder, control.ControlID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpdate_FailedChildrenKeepsOldSet(t *testing.T) {
	repo := &faultyRepo{MemoryControlsRepo: repository.NewMemoryControlsRepo()}
	svc := newTestControlService(repo)
	ctx := context.Background()

	points := collection.NewPoints()
	require.NoError(t, points.Add(collection.PointInput{Numero: collection.Num(1), TipoPlaga: domain.PlagaRoedores, Estado: domain.PuntoOK}))
	control, err := svc.Create(ctx, testWorker, exampleForm(), nil, points, "")
	require.NoError(t, err)

	repo.failPoints = errors.New("timeout")
	replacement := collection.NewPoints()
	require.NoError(t, replacement.Add(collection.PointInput{Numero: collection.Num(2), TipoPlaga: domain.PlagaRoedores, Estado: domain.PuntoOK}))
	_, err = svc.Update(ctx, testWorker, control.ControlID, exampleForm(), nil, replacement, "")
	require.Error(t, err)

	saved, err := repo.ListPoints(ctx, control.ControlID)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, 1, saved[0].NumeroPunto)
}

func TestGetAndExport(t *testing.T) {
	repo := repository.NewMemoryControlsRepo()
	svc := newTestControlService(repo)
	ctx := context.Background()

	products := collection.NewProducts()
	require.NoError(t, products.Add(collection.ProductInput{ProductoID: "p1", Cantidad: collection.Num(2), Unidad: "kg"}))
	control, err := svc.Create(ctx, testWorker, exampleForm(), products, nil, "")
	require.NoError(t, err)

	detail, err := svc.Get(ctx, testWorker, control.ControlID)
	require.NoError(t, err)
	assert.Len(t, detail.Productos, 1)
	assert.Empty(t, detail.Puntos)

	data, name, err := svc.Export(ctx, testWorker, control.ControlID)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Equal(t, "control_2024-01-01_"+control.ControlID+".xlsx", name)
}
