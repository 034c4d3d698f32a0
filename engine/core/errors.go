package core

import "errors"

var (
	ErrSwapchainBooting      = errors.New("swapchain is booting")
	ErrSwapchainStale        = errors.New("swapchain is out of date or suboptimal")
	ErrUnsupportedBlitFormat = errors.New("texture image format does not support linear blitting")
	ErrNoSuitableDevice      = errors.New("no physical device meets the requirements")
	ErrAssetNotFound         = errors.New("asset not found")
	ErrNullHandle            = errors.New("null resource handle")
	ErrUnknown               = errors.New("unknown error")
)
