// Package viewer shows a rendered chart in a desktop window.
package viewer

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// Show opens a window displaying the image at path and blocks until it is closed.
func Show(title, path string) {
	application := app.NewWithID("com.itohio.fueltable")

	window := application.NewWindow(title)
	window.Resize(fyne.NewSize(1400, 850))
	window.CenterOnScreen()

	img := canvas.NewImageFromFile(path)
	img.FillMode = canvas.ImageFillContain
	img.ScaleMode = canvas.ImageScaleSmooth

	window.SetContent(container.NewBorder(nil, widget.NewLabel(path), nil, nil, img))
	window.ShowAndRun()
}
