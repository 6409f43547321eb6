package deezer

import "encoding/json"

// Типы ответов Deezer API: https://developers.deezer.com/api

// APIError тело ошибки, которое Deezer возвращает со статусом 200
type APIError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// DataNotFoundCode код "no data" у Deezer
const DataNotFoundCode = 800

// User владелец плейлиста
type User struct {
	ID   json.Number `json:"id"`
	Name string      `json:"name"`
}

// Playlist ответ /playlist/{id}
type Playlist struct {
	ID            json.Number `json:"id"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	Fans          *int64      `json:"fans"`
	Picture       string      `json:"picture"`
	PictureMedium string      `json:"picture_medium"`
	PictureBig    string      `json:"picture_big"`
	Link          string      `json:"link"`
	NbTracks      int         `json:"nb_tracks"`
	Creator       *User       `json:"creator"`
	User          *User       `json:"user"`
	Error         *APIError   `json:"error"`
}

// Artist исполнитель трека
type Artist struct {
	ID   json.Number `json:"id"`
	Name string      `json:"name"`
}

// Album альбом трека
type Album struct {
	ID          json.Number `json:"id"`
	Title       string      `json:"title"`
	Cover       string      `json:"cover"`
	CoverMedium string      `json:"cover_medium"`
	CoverBig    string      `json:"cover_big"`
}

// Track элемент списка треков плейлиста
type Track struct {
	ID     json.Number `json:"id"`
	Title  string      `json:"title"`
	Rank   *int64      `json:"rank"`
	Artist *Artist     `json:"artist"`
	Album  *Album      `json:"album"`
}

// TrackPage ответ /playlist/{id}/tracks
type TrackPage struct {
	Data  []Track   `json:"data"`
	Total int       `json:"total"`
	Next  string    `json:"next"`
	Error *APIError `json:"error"`
}
