package httpapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/hazard-map/internal/hazard"
	"github.com/i474232898/hazard-map/internal/mapview"
)

var validate = validator.New()

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, ctrl *hazard.Controller, layer *mapview.Layer) {
	v1 := app.Group("/api/v1")

	v1.Get("/view", func(c *fiber.Ctx) error {
		return c.JSON(ctrl.View())
	})

	v1.Put("/view/dataset", func(c *fiber.Ctx) error {
		var req datasetRequest
		if err := bindBody(c, &req); err != nil {
			return err
		}
		kind, err := hazard.ParseKind(req.Kind)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := ctrl.SelectKind(c.UserContext(), kind); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(ctrl.View())
	})

	v1.Put("/view/province", func(c *fiber.Ctx) error {
		var req provinceRequest
		if err := bindBody(c, &req); err != nil {
			return err
		}
		ctrl.SelectProvince(req.filter())
		return c.JSON(ctrl.View())
	})

	v1.Put("/view/sidebar", func(c *fiber.Ctx) error {
		var req sidebarRequest
		if err := bindBody(c, &req); err != nil {
			return err
		}
		ctrl.SetSidebar(*req.Open)
		return c.JSON(ctrl.View())
	})

	v1.Post("/view/sidebar/toggle", func(c *fiber.Ctx) error {
		ctrl.ToggleSidebar()
		return c.JSON(ctrl.View())
	})

	v1.Post("/view/refresh", func(c *fiber.Ctx) error {
		ctrl.Refresh(c.UserContext())
		return c.JSON(ctrl.View())
	})

	v1.Put("/credential", func(c *fiber.Ctx) error {
		var req credentialRequest
		if err := bindBody(c, &req); err != nil {
			return err
		}
		ctrl.SetAPIKey(c.UserContext(), *req.APIKey)
		return c.JSON(ctrl.View())
	})

	v1.Get("/provinces", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"selected": ctrl.View().Province,
			"options":  provinceOptions(ctrl.Provinces()),
		})
	})

	v1.Get("/map", func(c *fiber.Ctx) error {
		return c.JSON(layer.Snapshot())
	})
}

type datasetRequest struct {
	Kind string `json:"kind" validate:"required"`
}

// provinceRequest selects every province with {"all": true} or one province
// with {"name": "..."}.
type provinceRequest struct {
	All  bool   `json:"all"`
	Name string `json:"name" validate:"required_without=All"`
}

func (r provinceRequest) filter() hazard.ProvinceFilter {
	if r.All {
		return hazard.AllProvinces()
	}
	return hazard.Province(r.Name)
}

type sidebarRequest struct {
	Open *bool `json:"open" validate:"required"`
}

type credentialRequest struct {
	APIKey *string `json:"api_key" validate:"required"`
}

type provinceOption struct {
	Label string `json:"label"`
	Name  string `json:"name,omitempty"`
	All   bool   `json:"all"`
}

func provinceOptions(provinces []string) []provinceOption {
	opts := make([]provinceOption, 0, len(provinces)+1)
	opts = append(opts, provinceOption{Label: hazard.AllProvincesLabel, All: true})
	for _, p := range provinces {
		opts = append(opts, provinceOption{Label: p, Name: p})
	}
	return opts
}

func bindBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}
