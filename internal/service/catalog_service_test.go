package service

import (
	"context"
	"testing"
	"time"

	"github.com/leonelpereyra44/pestcontrol/internal/apperrors"
	"github.com/leonelpereyra44/pestcontrol/internal/domain"
	"github.com/leonelpereyra44/pestcontrol/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCatalogService(t *testing.T) {
	repo := repository.NewMemoryCatalogRepo()
	repo.AddCliente("e1", domain.Cliente{ClienteID: "c2", Nombre: "Molino Sur"})
	repo.AddCliente("e1", domain.Cliente{ClienteID: "c1", Nombre: "Frigorífico Norte"})
	repo.AddCliente("e2", domain.Cliente{ClienteID: "c3", Nombre: "Ajeno"})
	repo.AddPlanta("c1", domain.Planta{PlantaID: "p1", Nombre: "Depósito"})
	repo.AddProducto("e1", domain.Producto{ProductoID: "pr2", Nombre: "Cipermetrina", TipoProducto: "insecticida"})
	repo.AddProducto("e1", domain.Producto{ProductoID: "pr1", Nombre: "Bromadiolona", TipoProducto: "rodenticida"})
	repo.AddWorker(*testWorker)

	svc := NewCatalogService(repo, time.Second, zap.NewNop())
	ctx := context.Background()

	clientes, err := svc.ListClientes(ctx, testWorker)
	require.NoError(t, err)
	require.Len(t, clientes, 2)
	assert.Equal(t, "Frigorífico Norte", clientes[0].Nombre)

	_, err = svc.ListPlantas(ctx, testWorker, "")
	assert.True(t, apperrors.IsValidation(err))
	plantas, err := svc.ListPlantas(ctx, testWorker, "c1")
	require.NoError(t, err)
	assert.Len(t, plantas, 1)

	productos, err := svc.ListProductos(ctx, testWorker)
	require.NoError(t, err)
	require.Len(t, productos, 2)
	assert.Equal(t, "insecticida", productos[0].TipoProducto)

	tecnicos, err := svc.ListTecnicos(ctx, testWorker)
	require.NoError(t, err)
	require.Len(t, tecnicos, 1)
	assert.Equal(t, "Ana", tecnicos[0].Nombre)

	_, err = svc.ListClientes(ctx, nil)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}
