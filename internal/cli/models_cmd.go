// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/jeranaias/rigrun-ide/internal/catalog"
	"github.com/jeranaias/rigrun-ide/internal/onprem"
)

// ModelsData is the payload of "models --json".
type ModelsData struct {
	OnPrem    []catalog.OnPremModel   `json:"onprem"`
	Cloud     []catalog.CloudModel    `json:"cloud"`
	Endpoints []onprem.EndpointHealth `json:"endpoints"`
}

// HandleModels handles "models": probes every on-prem endpoint and lists the
// cloud catalog.
func HandleModels(env *Env, args Args) error {
	a, err := openApp(env, args)
	if err != nil {
		return err
	}
	defer a.close()

	data := ModelsData{
		OnPrem: a.router.Available(context.Background()),
		Cloud:  a.router.Catalog().Models(),
	}
	data.Endpoints = a.provider.Health().Snapshot()
	if data.OnPrem == nil {
		data.OnPrem = []catalog.OnPremModel{}
	}

	return env.emit(args, "models", data, func(w io.Writer) {
		fmt.Fprintln(w, TitleStyle.Render("On-Prem Models"))
		if !a.cfg.OnPrem.Enabled {
			fmt.Fprintln(w, WarningStyle.Render("  On-prem processing is disabled in the config."))
		}
		for _, ep := range data.Endpoints {
			status := "ok"
			detail := fmt.Sprintf("%d models", ep.ModelCount)
			if !ep.Healthy {
				status = "fail"
				detail = ep.LastError
			}
			fmt.Fprintf(w, "  %s %s %s\n", RenderStatus(status), RenderLabel(ep.Name, 12), DimStyle.Render(ep.URL+"  "+detail))
		}
		if len(data.OnPrem) == 0 {
			fmt.Fprintln(w, DimStyle.Render("  No on-prem models reachable."))
		}
		for _, m := range data.OnPrem {
			tag := ""
			if m.HasCapability("code") {
				tag = " " + OnPremStyle.Render("[code]")
			}
			fmt.Fprintf(w, "  %s%s%s\n", RenderLabel(m.ID, 36), ValueStyle.Render(m.Label()), tag)
		}

		fmt.Fprintln(w)
		fmt.Fprintln(w, TitleStyle.Render("Cloud Models"))
		for _, m := range data.Cloud {
			tag := ""
			if m.Recommended {
				tag = " " + CloudStyle.Render("[recommended]")
			}
			fmt.Fprintf(w, "  %s%s%s\n", RenderLabel(m.ID, 36), ValueStyle.Render(m.Name), tag)
		}
	})
}
