package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"owl_eval_backend/internal/model"
	"owl_eval_backend/internal/repository"
	"owl_eval_backend/internal/util"
	"owl_eval_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// VideoService 视频库：上传入库、探测元数据、列表、删除
type VideoService struct {
	Repo    *repository.VideoRepository
	Storage *StorageService
}

func NewVideoService(repo *repository.VideoRepository, storage *StorageService) *VideoService {
	return &VideoService{Repo: repo, Storage: storage}
}

func (s *VideoService) Upload(ctx context.Context, file *multipart.FileHeader, modelName, scenario string) (*model.Video, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	// 先落到临时文件，ffprobe需要本地路径
	tmp, err := os.CreateTemp("", "upload-*"+filepath.Ext(file.Filename))
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return nil, err
	}
	tmp.Close()

	info, err := util.GetVideoInfo(tmp.Name())
	if err != nil {
		// 探测失败不阻断上传，元数据留空
		logger.Log.Warn("video probe failed", zap.String("file", file.Filename), zap.Error(err))
		info = &util.VideoInfo{Size: file.Size}
	}

	key := fmt.Sprintf("videos/%s/%s/%d_%s", modelName, scenario, time.Now().Unix(), filepath.Base(file.Filename))
	url, err := s.Storage.UploadFile(ctx, key, tmp.Name(), file.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}

	v := &model.Video{
		Key:       key,
		URL:       url,
		ModelName: modelName,
		Scenario:  scenario,
		SizeBytes: info.Size,
		Duration:  info.Duration,
		Width:     info.Width,
		Height:    info.Height,
		Format:    info.Format,
	}
	if err := s.Repo.Create(v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *VideoService) List(modelName, scenario string, page, limit int) ([]model.Video, int64, error) {
	return s.Repo.List(modelName, scenario, page, limit)
}

func (s *VideoService) Get(id string) (*model.Video, error) {
	v, err := s.Repo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrVideoNotFound
		}
		return nil, err
	}
	return v, nil
}

func (s *VideoService) Delete(ctx context.Context, id string) error {
	v, err := s.Get(id)
	if err != nil {
		return err
	}
	if err := s.Storage.Delete(ctx, v.Key); err != nil {
		logger.Log.Warn("failed to delete video object", zap.String("key", v.Key), zap.Error(err))
	}
	return s.Repo.Delete(id)
}

// Stream 按存储key读出视频流，/api/video/* 代理用
func (s *VideoService) Stream(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.Storage.Download(ctx, key)
}
